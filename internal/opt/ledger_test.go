package opt

import "testing"

func TestLedgerTokenCooldown(t *testing.T) {
	tu := DefaultTuning()
	l := NewLedger(Prefs{UseToken: true}, tu, 540)
	if !l.CanUseToken(540) {
		t.Fatalf("token should be available at open")
	}
	// book at 10:00, redeem at 10:05; standard cooldown is 60m
	l.UseToken(600, 605, "standard")
	if l.CanUseToken(640) {
		t.Fatalf("token usable during cooldown")
	}
	if !l.CanUseToken(660) {
		t.Fatalf("token not usable after cooldown elapsed")
	}
	if l.TokenUses() != 1 {
		t.Fatalf("uses=%d", l.TokenUses())
	}
}

func TestLedgerRedemptionFloor(t *testing.T) {
	tu := DefaultTuning()
	l := NewLedger(Prefs{UseToken: true}, tu, 540)
	// redemption after the cooldown would end: next booking waits for it
	l.UseToken(600, 700, "standard")
	if l.CanUseToken(680) {
		t.Fatalf("token usable before the active reservation is redeemed")
	}
	if !l.CanUseToken(700) {
		t.Fatalf("token not usable at redemption")
	}
}

func TestLedgerClassCooldowns(t *testing.T) {
	tu := DefaultTuning()
	l := NewLedger(Prefs{UseToken: true}, tu, 540)
	l.UseToken(600, 601, "high")
	if l.CanUseToken(700) {
		t.Fatalf("high-demand cooldown should outlast 100m")
	}
	if !l.CanUseToken(720) {
		t.Fatalf("high-demand cooldown should be over at 120m")
	}
}

func TestLedgerDisabledToken(t *testing.T) {
	l := NewLedger(Prefs{}, DefaultTuning(), 540)
	if l.CanUseToken(540) {
		t.Fatalf("token usable when the preference is off")
	}
}

func TestLedgerSpendCap(t *testing.T) {
	l := NewLedger(Prefs{UsePaid: true, SpendCap: 25}, DefaultTuning(), 540)
	if !l.CanSpend(12) {
		t.Fatalf("first reservation should fit the cap")
	}
	l.Spend(12)
	if !l.CanSpend(13) {
		t.Fatalf("exact cap should be allowed")
	}
	if l.CanSpend(14) {
		t.Fatalf("cap exceeded but spend allowed")
	}
	l.Spend(13)
	if l.Spent() != 25 {
		t.Fatalf("spent=%f", l.Spent())
	}
}
