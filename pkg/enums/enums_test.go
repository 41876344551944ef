package enums

import "testing"

func TestProjectTransitionTable(t *testing.T) {
	cases := []struct {
		from, to ProjectStatus
		allowed  bool
	}{
		{ProjectStatusDraft, ProjectStatusActive, true},
		{ProjectStatusDraft, ProjectStatusCancelled, true},
		{ProjectStatusDraft, ProjectStatusClosed, false},
		{ProjectStatusActive, ProjectStatusCancelled, true},
		{ProjectStatusActive, ProjectStatusClosed, true},
		{ProjectStatusActive, ProjectStatusDraft, false},
		{ProjectStatusActive, ProjectStatusActive, false},
		{ProjectStatusClosed, ProjectStatusActive, false},
		{ProjectStatusCancelled, ProjectStatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}

	for status := range projectTransitions {
		if !projectStatuses.has(status) {
			t.Fatalf("transition table names unknown status %s", status)
		}
	}
	if !ProjectStatusClosed.IsTerminal() || !ProjectStatusCancelled.IsTerminal() {
		t.Fatal("closed and cancelled must be terminal")
	}
}

func TestFinancialStatusIsOneWay(t *testing.T) {
	if !FinancialStatusOpen.CanTransitionTo(FinancialStatusClosed) {
		t.Fatal("ABIERTO -> CERRADO must be allowed")
	}
	if FinancialStatusClosed.CanTransitionTo(FinancialStatusOpen) {
		t.Fatal("CERRADO -> ABIERTO must be rejected")
	}
	if FinancialStatusClosed.CanTransitionTo(FinancialStatusClosed) {
		t.Fatal("CERRADO -> CERRADO must be rejected")
	}
}

func TestParseRejectsLegacyVocabulary(t *testing.T) {
	if _, err := ParseProjectStatus("COTIZANDO"); err == nil {
		t.Fatal("expected legacy project status to be rejected")
	}
	if _, err := ParseQuoteStatus("APROBADO"); err == nil {
		t.Fatal("expected legacy quote status to be rejected")
	}
	if got, err := ParseFinancialStatus("CERRADO"); err != nil || got != FinancialStatusClosed {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
}

func TestParseTrimsButKeepsCase(t *testing.T) {
	if got, err := ParsePaymentStatus(" PAID "); err != nil || got != PaymentStatusPaid {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
	if _, err := ParseUserRole("Admin"); err == nil {
		t.Fatal("expected role parsing to be case sensitive")
	}
	if _, err := ParseOutboxDLQErrorReason("expired"); err == nil || err.Error() != `invalid dlq error reason "expired"` {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestListsAreCopies(t *testing.T) {
	reasons := OutboxDLQErrorReasons()
	reasons[0] = "mutated"
	if OutboxDLQErrorReasons()[0] != OutboxDLQReasonUndecodable {
		t.Fatal("callers must not be able to mutate the reason list")
	}
}
