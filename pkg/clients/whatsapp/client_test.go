package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mamadbah2/stockbook/internal/config"
)

func TestSendTextMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/555/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{BaseURL: srv.URL + "/", APIVersion: "v20.0", AccessToken: "secret", PhoneNumberID: "555"})
	resp, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "+919800000000", Body: "hello"})
	if err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "wamid.1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got["to"] != "919800000000" || got["type"] != "text" {
		t.Fatalf("unexpected payload %+v", got)
	}
	text, _ := got["text"].(map[string]any)
	if text["body"] != "hello" {
		t.Fatalf("unexpected text %+v", text)
	}
}

func TestSendTextMessageErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{BaseURL: srv.URL, APIVersion: "v20.0", AccessToken: "secret", PhoneNumberID: "555"})

	_, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "91980", Body: "hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || !strings.Contains(apiErr.Error(), "Invalid parameter") {
		t.Fatalf("unexpected api error %v", apiErr)
	}

	if _, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "  ", Body: "hi"}); !errors.Is(err, ErrEmptyRecipient) {
		t.Fatalf("want ErrEmptyRecipient, got %v", err)
	}
}
