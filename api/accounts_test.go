package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAccountsUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resultCode":"200-1","msg":"ok","data":[
			{"id":1,"accountNumber":"110-234-567890","name":"Checking","balance":1500000},
			{"id":2,"accountNumber":"110-234-567891","name":"Savings","balance":8200000}
		]}`))
	}))
	defer server.Close()

	client, _, store := newTestClient(t, server.URL)
	seedSession(t, store, time.Hour)

	accounts, err := client.Accounts(context.Background())
	if err != nil {
		t.Fatalf("accounts failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts", len(accounts))
	}
	if accounts[0].Name != "Checking" || accounts[0].Balance != 1500000 {
		t.Errorf("first account = %+v", accounts[0])
	}

	total, err := client.TotalBalance(context.Background())
	if err != nil {
		t.Fatalf("total balance failed: %v", err)
	}
	if total != 9700000 {
		t.Errorf("total balance = %d", total)
	}
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		target  int64
		want    int
	}{
		{"halfway", 500, 1000, 50},
		{"complete", 1000, 1000, 100},
		{"overshoot capped", 1500, 1000, 100},
		{"zero target", 500, 0, 0},
		{"nothing saved", 0, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Goal{CurrentAmount: tt.current, TargetAmount: tt.target}
			if got := g.Progress(); got != tt.want {
				t.Errorf("Progress() = %d, want %d", got, tt.want)
			}
		})
	}
}
