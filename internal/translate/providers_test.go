package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLibreTranslatePostsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/translate", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "hello", body["q"])
		require.Equal(t, "en", body["source"])
		require.Equal(t, "es", body["target"])
		require.Equal(t, "secret", body["api_key"])

		_, _ = w.Write([]byte(`{"translatedText":"hola"}`))
	}))
	defer srv.Close()

	got, err := NewLibreTranslate(srv.URL+"/", "secret", srv.Client()).Translate(context.Background(), "hello", "en", "es")
	require.NoError(t, err)
	require.Equal(t, "hola", got)
}

func TestLibreTranslateHTTP429IsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewLibreTranslate(srv.URL, "", srv.Client()).Translate(context.Background(), "hello", "en", "es")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestMyMemoryReadsBusinessStatus(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		want        string
		rateLimited bool
		wantErr     bool
	}{
		{name: "numeric ok", body: `{"responseData":{"translatedText":"bonjour"},"responseStatus":200}`, want: "bonjour"},
		{name: "quoted ok", body: `{"responseData":{"translatedText":"bonjour"},"responseStatus":"200"}`, want: "bonjour"},
		{name: "quota exceeded", body: `{"responseData":{"translatedText":"MYMEMORY WARNING"},"responseStatus":429,"responseDetails":"quota"}`, rateLimited: true, wantErr: true},
		{name: "bad pair", body: `{"responseData":{"translatedText":""},"responseStatus":"403","responseDetails":"INVALID LANGUAGE PAIR"}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/get", r.URL.Path)
				require.Equal(t, "hello", r.URL.Query().Get("q"))
				require.Equal(t, "en|fr", r.URL.Query().Get("langpair"))
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := NewMyMemory(srv.URL, "", srv.Client()).Translate(context.Background(), "hello", "en", "fr")
			if !tc.wantErr {
				require.NoError(t, err)
				require.Equal(t, tc.want, got)
				return
			}
			require.Error(t, err)
			require.Equal(t, tc.rateLimited, errors.Is(err, ErrRateLimited))
		})
	}
}

func TestLingvaEscapesPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/en/de/good morning/you", r.URL.Path)
		_, _ = w.Write([]byte(`{"translation":"guten Morgen"}`))
	}))
	defer srv.Close()

	got, err := NewLingva(srv.URL, srv.Client()).Translate(context.Background(), "good morning/you", "en", "de")
	require.NoError(t, err)
	require.Equal(t, "guten Morgen", got)
}

func TestProviderErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewLingva(srv.URL, srv.Client()).Translate(context.Background(), "hi", "en", "de")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "lingva", pe.Provider)
	require.Equal(t, http.StatusBadGateway, pe.Status)
}

func TestLanguagesReturnsCopy(t *testing.T) {
	first := Languages()
	require.NotEmpty(t, first)
	first[0].Name = "changed"
	require.NotEqual(t, "changed", Languages()[0].Name)
}
