package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mbd888/guardian/internal/audit"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// shouldSend tests
// ---------------------------------------------------------------------------

func TestShouldSend_AllEvents(t *testing.T) {
	h := testHub()
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &Event{Type: EventAudit, Timestamp: time.Now()}
	if !h.shouldSend(client, event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestShouldSend_EventTypeFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		EventTypes: []EventType{EventSettlement},
	}}

	settlement := &Event{Type: EventSettlement}
	auditEvent := &Event{Type: EventAudit}

	if !h.shouldSend(client, settlement) {
		t.Error("Should receive settlement events")
	}
	if h.shouldSend(client, auditEvent) {
		t.Error("Should NOT receive audit events")
	}
}

func TestShouldSend_IntentFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		Intents: []string{"Transfer_Funds"},
	}}

	matching := &Event{
		Type: EventAudit,
		Data: map[string]interface{}{"intent": "Transfer_Funds", "status": "BLOCKED"},
	}
	notMatching := &Event{
		Type: EventAudit,
		Data: map[string]interface{}{"intent": "Check_Balance", "status": "NLU_SUCCESS"},
	}

	if !h.shouldSend(client, matching) {
		t.Error("Should match on intent")
	}
	if h.shouldSend(client, notMatching) {
		t.Error("Should NOT match other intents")
	}
}

func TestShouldSend_StatusFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		Statuses: []string{"SECURITY_CHALLENGE", "BLOCKED"},
	}}

	challenge := &Event{
		Type: EventAudit,
		Data: map[string]interface{}{"status": "SECURITY_CHALLENGE"},
	}
	pass := &Event{
		Type: EventAudit,
		Data: map[string]interface{}{"status": "LOW_RISK_PASS"},
	}

	if !h.shouldSend(client, challenge) {
		t.Error("Should match on status")
	}
	if h.shouldSend(client, pass) {
		t.Error("Should NOT match unlisted statuses")
	}
}

func TestShouldSend_MinAmount(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{MinAmount: 1000}}

	big := &Event{
		Type: EventSettlement,
		Data: map[string]interface{}{"amount": 5000.0},
	}
	small := &Event{
		Type: EventSettlement,
		Data: map[string]interface{}{"amount": 50.0},
	}

	if !h.shouldSend(client, big) {
		t.Error("Should receive settlements above minimum")
	}
	if h.shouldSend(client, small) {
		t.Error("Should NOT receive settlements below minimum")
	}
}

// ---------------------------------------------------------------------------
// Broadcast tests
// ---------------------------------------------------------------------------

func TestBroadcastAuditEntry(t *testing.T) {
	h := testHub()

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	defer cancel()

	h.BroadcastAuditEntry(&audit.Entry{
		Actor:  "USR-1001",
		Intent: "Transfer_Funds",
		Status: audit.StatusChallenge,
		Detail: "Risk Score: 90.00%",
	})

	// Give the hub loop a moment to drain the channel.
	deadline := time.After(time.Second)
	for h.totalEvents.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("event was not processed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestBroadcast_DropsWhenFull(t *testing.T) {
	h := testHub()
	// Not running: fill the channel and confirm Broadcast doesn't block.
	for i := 0; i < 300; i++ {
		h.Broadcast(&Event{Type: EventAudit})
	}
}

func TestStats(t *testing.T) {
	h := testHub()
	stats := h.Stats()

	if stats["connectedClients"].(int) != 0 {
		t.Error("expected zero connected clients")
	}
}
