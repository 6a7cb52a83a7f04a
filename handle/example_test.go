package handle_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/adamwoolhether/fetcher/handle"
	"github.com/adamwoolhether/fetcher/sink"
)

func ExampleNew() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer ts.Close()

	h, err := handle.New(ts.URL, sink.NewBytes(0), handle.WithTransferTimeout(5*time.Second))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer h.Close()

	body, err := h.Fetch(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(string(body))
	// Output: hello
}

func ExampleHandle_Fetch_notFound() {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	h, err := handle.New(ts.URL, sink.NewText())
	if err != nil {
		fmt.Println(err)
		return
	}
	defer h.Close()

	_, err = h.Fetch(context.Background())

	var terr *handle.TransferError
	if errors.As(err, &terr) {
		fmt.Println(errors.Is(err, handle.ErrNotFound), terr.HTTPCode)
	}
	// Output: true 404
}

func ExampleNewSharedConnections() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer ts.Close()

	sc, err := handle.NewSharedConnections()
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, path := range []string{"/a", "/b"} {
		h, err := handle.New(ts.URL+path, sink.NewBytes(0), handle.WithConnectionSharing(sc))
		if err != nil {
			fmt.Println(err)
			return
		}

		body, err := h.Fetch(context.Background())
		if err != nil {
			fmt.Println(err)
		}
		fmt.Println(string(body))
		_ = h.Close()
	}

	fmt.Printf("%+v\n", sc.Stats())
	_ = sc.Close()
	// Output:
	// /a
	// /b
	// {Created:1 Reused:1}
}
