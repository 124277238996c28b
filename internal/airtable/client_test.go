package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("pat-test", WithBaseURL(srv.URL))
}

func TestListBases(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meta/bases" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer pat-test" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"bases": []map[string]any{
				{"id": "app1", "name": "CRM", "permissionLevel": "create"},
			},
			"offset": "off2",
		})
	})

	bases, offset, err := client.ListBases(context.Background(), "")
	if err != nil {
		t.Fatalf("ListBases() error = %v", err)
	}
	if len(bases) != 1 || bases[0].Name != "CRM" {
		t.Errorf("bases = %+v", bases)
	}
	if offset != "off2" {
		t.Errorf("offset = %q", offset)
	}
}

func TestListRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app1/Leads" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("maxRecords") != "25" || q.Get("filterByFormula") != "{Status}='New'" {
			t.Errorf("query = %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{
				{"id": "rec1", "createdTime": "2026-02-01T00:00:00Z", "fields": map[string]any{"Name": "Acme"}},
			},
		})
	})

	records, _, err := client.ListRecords(context.Background(), "app1", "Leads", &ListOptions{
		MaxRecords:    25,
		FilterFormula: "{Status}='New'",
	})
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 1 || records[0].Fields["Name"] != "Acme" {
		t.Errorf("records = %+v", records)
	}
}

func TestCreateRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		var payload struct {
			Fields map[string]any `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Fields["Name"] != "Acme" {
			t.Errorf("fields = %v", payload.Fields)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "rec9", "createdTime": "2026-02-01T00:00:00Z", "fields": payload.Fields,
		})
	})

	record, err := client.CreateRecord(context.Background(), "app1", "Leads", map[string]any{"Name": "Acme"})
	if err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	if record.ID != "rec9" {
		t.Errorf("record = %+v", record)
	}
}

func TestCreateRecord_Validation(t *testing.T) {
	client := NewClient("pat-test")
	if _, err := client.CreateRecord(context.Background(), "", "Leads", map[string]any{"a": 1}); err == nil {
		t.Error("CreateRecord() should require baseID")
	}
	if _, err := client.CreateRecord(context.Background(), "app1", "Leads", nil); err == nil {
		t.Error("CreateRecord() should require fields")
	}
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "INVALID_VALUE_FOR_COLUMN", "message": "bad value"},
		})
	})

	_, err := client.CreateRecord(context.Background(), "app1", "Leads", map[string]any{"Name": 1})
	if err == nil {
		t.Fatal("CreateRecord() should surface the API error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Type != "INVALID_VALUE_FOR_COLUMN" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
