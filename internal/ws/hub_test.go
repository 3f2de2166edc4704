package ws

import (
	"log/slog"
	"testing"
	"time"
)

func esperar(t *testing.T, ch chan []byte, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if string(got) != want {
			t.Fatalf("got %q; want %q", got, want)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout esperando %q", want)
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	c1 := &Cliente{UserID: "u1", Send: make(chan []byte, 1)}
	c2 := &Cliente{UserID: "u2", Send: make(chan []byte, 1)}
	h.Register(c1)
	h.Register(c2)

	h.Broadcast([]byte("hello"))

	esperar(t, c1.Send, "hello")
	esperar(t, c2.Send, "hello")
}

func TestHub_EnviarParaUsuario(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	// duas conexões do mesmo usuário + uma de outro
	c1 := &Cliente{UserID: "u1", Send: make(chan []byte, 1)}
	c2 := &Cliente{UserID: "u1", Send: make(chan []byte, 1)}
	c3 := &Cliente{UserID: "u2", Send: make(chan []byte, 1)}
	h.Register(c1)
	h.Register(c2)
	h.Register(c3)

	h.EnviarParaUsuario("u1", []byte("so-para-u1"))

	esperar(t, c1.Send, "so-para-u1")
	esperar(t, c2.Send, "so-para-u1")

	select {
	case got := <-c3.Send:
		t.Fatalf("u2 não deveria receber, mas recebeu %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}
