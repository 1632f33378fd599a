package security

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSafeClient(t *testing.T) {
	client := NewSSRFGuard().NewSafeClient(5*time.Second, 1024)
	if client == nil {
		t.Fatal("NewSafeClient() returned nil")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("expected a custom Transport")
	}
}

// httptestサーバーは127.0.0.1で起動するため、safeurlが接続を拒否する。
func TestNewSafeClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.7"))
	}))
	defer ts.Close()

	client := NewSSRFGuard().NewSafeClient(5*time.Second, 1024)
	if _, err := client.Get(ts.URL + "/Calendriers-2026/01-Cal-gmr-2026.pdf"); err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

func TestLimitedTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Content-Lengthを付けずにストリーミングする
		w.Header().Set("Content-Type", "application/pdf")
		for range 4 {
			w.Write([]byte(strings.Repeat("x", 256)))
			w.(http.Flusher).Flush()
		}
	}))
	defer ts.Close()

	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{name: "within limit", limit: 1024, wantErr: false},
		{name: "over limit", limit: 1000, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &http.Client{Transport: &limitedTransport{base: http.DefaultTransport, limit: tt.limit}}
			resp, err := client.Get(ts.URL)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if tt.wantErr {
				if !errors.Is(err, ErrResponseTooLarge) {
					t.Errorf("ReadAll() error = %v, want ErrResponseTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(body) != 1024 {
				t.Errorf("len(body) = %d, want 1024", len(body))
			}
		})
	}
}

func TestLimitedTransport_RejectsDeclaredLength(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer ts.Close()

	client := &http.Client{Transport: &limitedTransport{base: http.DefaultTransport, limit: 1024}}
	_, err := client.Get(ts.URL)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("Get() error = %v, want ErrResponseTooLarge", err)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "municipal https", url: "https://www.rouyn-noranda.ca/Calendriers-2026/01-Cal-gmr-2026.pdf", wantErr: false},
		{name: "plain http", url: "http://example.com/Calendriers-2026/a.pdf", wantErr: false},
		{name: "empty", url: "", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com/a.pdf", wantErr: true},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: true},
		{name: "no host", url: "https:///a.pdf", wantErr: true},
		{name: "private 10/8", url: "http://10.0.0.1/a.pdf", wantErr: true},
		{name: "private 172.16/12", url: "http://172.31.255.255/a.pdf", wantErr: true},
		{name: "private 192.168/16", url: "http://192.168.1.100/a.pdf", wantErr: true},
		{name: "loopback", url: "http://127.0.0.2/a.pdf", wantErr: true},
		{name: "localhost", url: "http://LOCALHOST/a.pdf", wantErr: true},
		{name: "metadata", url: "http://169.254.169.254/latest/meta-data/", wantErr: true},
		{name: "zero address", url: "http://0.0.0.0/a.pdf", wantErr: true},
		{name: "ipv6 loopback", url: "http://[::1]/a.pdf", wantErr: true},
		{name: "ipv6 unique local", url: "http://[fd00::1]/a.pdf", wantErr: true},
		{name: "ipv6 link local", url: "http://[fe80::1]/a.pdf", wantErr: true},
		{name: "ipv4-mapped private", url: "http://[::ffff:10.0.0.1]/a.pdf", wantErr: true},
		{name: "localhost subdomain", url: "http://calendars.localhost/a.pdf", wantErr: true},
		{name: "public ipv4", url: "http://8.8.8.8/a.pdf", wantErr: false},
	}

	guard := NewSSRFGuard()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
