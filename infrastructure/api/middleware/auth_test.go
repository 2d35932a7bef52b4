package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, handler http.Handler, method, key string) int {
	t.Helper()
	req := httptest.NewRequest(method, "/", nil)
	if key != "" {
		req.Header.Set("X-API-KEY", key)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code
}

func TestWriteProtect(t *testing.T) {
	safeMethods := []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	mutatingMethods := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

	t.Run("safe methods pass without key", func(t *testing.T) {
		handler := WriteProtect(NewAuthConfigWithKeys([]string{"secret"}))(okHandler())
		for _, method := range safeMethods {
			if code := doRequest(t, handler, method, ""); code != http.StatusOK {
				t.Errorf("%s without key: status = %d, want %d", method, code, http.StatusOK)
			}
		}
	})

	t.Run("mutating methods require a key", func(t *testing.T) {
		handler := WriteProtect(NewAuthConfigWithKeys([]string{"secret"}))(okHandler())
		for _, method := range mutatingMethods {
			if code := doRequest(t, handler, method, ""); code != http.StatusUnauthorized {
				t.Errorf("%s without key: status = %d, want %d", method, code, http.StatusUnauthorized)
			}
		}
	})

	t.Run("mutating methods pass with a valid key", func(t *testing.T) {
		handler := WriteProtect(NewAuthConfigWithKeys([]string{"secret"}))(okHandler())
		for _, method := range mutatingMethods {
			if code := doRequest(t, handler, method, "secret"); code != http.StatusOK {
				t.Errorf("%s with valid key: status = %d, want %d", method, code, http.StatusOK)
			}
		}
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		handler := WriteProtect(NewAuthConfigWithKeys([]string{"secret"}))(okHandler())
		if code := doRequest(t, handler, http.MethodPost, "wrong"); code != http.StatusUnauthorized {
			t.Errorf("POST with invalid key: status = %d, want %d", code, http.StatusUnauthorized)
		}
	})

	t.Run("any configured key is accepted", func(t *testing.T) {
		handler := WriteProtect(NewAuthConfigWithKeys([]string{"first", "second"}))(okHandler())
		for _, key := range []string{"first", "second"} {
			if code := doRequest(t, handler, http.MethodPost, key); code != http.StatusOK {
				t.Errorf("POST with key %q: status = %d, want %d", key, code, http.StatusOK)
			}
		}
	})

	t.Run("no keys disables auth entirely", func(t *testing.T) {
		handler := WriteProtect(NewAuthConfigWithKeys(nil))(okHandler())
		for _, method := range append(safeMethods, mutatingMethods...) {
			if code := doRequest(t, handler, method, ""); code != http.StatusOK {
				t.Errorf("%s with auth disabled: status = %d, want %d", method, code, http.StatusOK)
			}
		}
	})
}

func TestWriteProtectAuth(t *testing.T) {
	handler := WriteProtectAuth([]string{"secret"})(okHandler())

	if code := doRequest(t, handler, http.MethodPost, ""); code != http.StatusUnauthorized {
		t.Errorf("POST without key: status = %d, want %d", code, http.StatusUnauthorized)
	}
	if code := doRequest(t, handler, http.MethodPost, "secret"); code != http.StatusOK {
		t.Errorf("POST with key: status = %d, want %d", code, http.StatusOK)
	}
}
