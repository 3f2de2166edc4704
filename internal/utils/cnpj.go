package utils

import (
	"errors"
	"fmt"
	"unicode"
)

var ErrCNPJIncompleto = errors.New("cnpj must have 14 digits")

// remove qualquer coisa que não seja dígito
func SanitizeCNPJ(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// ValidateCNPJ aceita entrada com ou sem pontuação e confere os dois
// dígitos verificadores (módulo 11). Sequências com todos os dígitos
// iguais são rejeitadas mesmo quando os DVs "fecham" (ex.: 000...0).
func ValidateCNPJ(cnpj string) bool {
	d := SanitizeCNPJ(cnpj)
	if len(d) != 14 {
		return false
	}
	allEq := true
	for i := 1; i < 14; i++ {
		if d[i] != d[0] {
			allEq = false
			break
		}
	}
	if allEq {
		return false
	}
	if digitoVerificador(d, 12) != int(d[12]-'0') {
		return false
	}
	return digitoVerificador(d, 13) == int(d[13]-'0')
}

// digitoVerificador calcula o DV sobre os primeiros n dígitos.
// Pesos 2..9 aplicados da direita para a esquerda, reiniciando em 2 após o 9.
func digitoVerificador(d string, n int) int {
	sum := 0
	weight := 2
	for i := n - 1; i >= 0; i-- {
		sum += int(d[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// FormatCNPJ devolve a forma canônica NN.NNN.NNN/NNNN-NN.
// Não valida DV; entrada sem 14 dígitos é erro (nada de saída parcial).
func FormatCNPJ(cnpj string) (string, error) {
	d := SanitizeCNPJ(cnpj)
	if len(d) != 14 {
		return "", ErrCNPJIncompleto
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[0:2], d[2:5], d[5:8], d[8:12], d[12:14]), nil
}
