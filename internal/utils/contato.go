package utils

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"
)

var ErrTelefoneInvalido = errors.New("telefone must have 10 or 11 digits")

// Checagem puramente sintática (algo@algo.algo); sem consulta DNS/MX.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmail(s string) bool {
	return emailRe.MatchString(s)
}

func sanitizeDigitos(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// ValidateTelefone: fixo (10 dígitos) ou celular (11), com DDD, sem código de país.
func ValidateTelefone(s string) bool {
	n := len(sanitizeDigitos(s))
	return n == 10 || n == 11
}

// FormatTelefone devolve (AA) NNNNN-NNNN para celular e (AA) NNNN-NNNN para fixo.
// Comprimento fora de 10/11 é erro; não devolvemos a entrada sem formatar.
func FormatTelefone(s string) (string, error) {
	d := sanitizeDigitos(s)
	switch len(d) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", d[0:2], d[2:7], d[7:11]), nil
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[0:2], d[2:6], d[6:10]), nil
	default:
		return "", ErrTelefoneInvalido
	}
}
