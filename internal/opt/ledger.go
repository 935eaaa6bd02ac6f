package opt

// Ledger tracks consumption of the day's priority-access budget. It is
// created fresh per optimization call and never shared.
//
// Included-token track: one reservation active at a time; booking while
// available starts a cooldown (length depends on the attraction's demand
// class), and the next booking must wait for both the cooldown floor and
// the redemption of the active reservation.
//
// Paid-individual track: a running spend total against the party's cap.
type Ledger struct {
	useToken bool
	usePaid  bool

	tokenNextAt float64 // minute-of-day when the next token booking is allowed
	tokenUses   int

	spend float64
	cap   float64

	cooldown map[string]float64
}

func NewLedger(prefs Prefs, t Tuning, openMin float64) *Ledger {
	return &Ledger{
		useToken:    prefs.UseToken,
		usePaid:     prefs.UsePaid,
		tokenNextAt: openMin,
		cap:         prefs.SpendCap,
		cooldown:    t.CooldownMin,
	}
}

func (l *Ledger) cooldownFor(class string) float64 {
	if v, ok := l.cooldown[class]; ok {
		return v
	}
	if v, ok := l.cooldown["standard"]; ok {
		return v
	}
	return 60
}

// CanUseToken reports whether an included-token reservation may be
// booked at the given clock time.
func (l *Ledger) CanUseToken(at float64) bool {
	return l.useToken && at >= l.tokenNextAt
}

// UseToken books a token at bookAt and redeems it at redeemAt (the visit
// start). The next booking is allowed only after redemption and after
// the class cooldown has elapsed since booking.
func (l *Ledger) UseToken(bookAt, redeemAt float64, class string) {
	next := bookAt + l.cooldownFor(class)
	if redeemAt > next {
		next = redeemAt
	}
	l.tokenNextAt = next
	l.tokenUses++
}

// CanSpend reports whether a paid individual reservation fits the cap.
func (l *Ledger) CanSpend(price float64) bool {
	return l.usePaid && price > 0 && l.spend+price <= l.cap
}

func (l *Ledger) Spend(price float64) { l.spend += price }

func (l *Ledger) TokenUses() int     { return l.tokenUses }
func (l *Ledger) Spent() float64     { return l.spend }
func (l *Ledger) NextToken() float64 { return l.tokenNextAt }
