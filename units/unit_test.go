package units

import "testing"

func TestEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  U
		equal bool
	}{
		{"same currency", Curr("USD"), Curr("USD"), true},
		{"different currency", Curr("USD"), Curr("EUR"), false},
		{"fraction vs boolean", Frac(), Boo(), false},
		{"series of same elem", Series(Curr("USD")), Series(Curr("USD")), true},
		{"series of different elem", Series(Curr("USD")), Series(Curr("EUR")), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.equal {
				t.Errorf("%s.Equal(%s) = %v, want %v", tc.a, tc.b, got, tc.equal)
			}
		})
	}
}

func TestDivProducesRate(t *testing.T) {
	revenue := Curr("USD")
	months := Dur("Month")
	rate, err := Div(revenue, months)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.Kind != Rate {
		t.Fatalf("expected Rate, got %s", rate.Kind)
	}
	if rate.Under != Currency {
		t.Fatalf("expected Under=Currency, got %s", rate.Under)
	}
	if got := rate.String(); got != "Rate per Month of Currency<USD>" {
		t.Errorf("String() = %q", got)
	}
}

func TestMulRateByMatchingDimCollapsesToUnder(t *testing.T) {
	price, err := Div(Curr("USD"), Cnt("Month"))
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	revenue, err := Mul(price, Cnt("Month"))
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if revenue.Kind != Currency {
		t.Fatalf("expected collapsed Currency, got %s", revenue.Kind)
	}
	if !revenue.Equal(Curr("USD")) {
		t.Errorf("expected Currency<USD>, got %s", revenue)
	}
}

func TestMulCountByRatePerUnitProducesRevenue(t *testing.T) {
	// scenario S3: price (Rate per Customer of Currency<USD>) * units (Count<Customer>) -> Currency<USD>
	pricePerCustomer, err := Div(Curr("USD"), Cnt("Customer"))
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	total, err := Mul(Cnt("Customer"), pricePerCustomer)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if !total.Equal(Curr("USD")) {
		t.Errorf("expected Currency<USD>, got %s", total)
	}
}

func TestDivSameDimensionIsFraction(t *testing.T) {
	ratio, err := Div(Cnt("Customer"), Cnt("Customer"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ratio.Kind != Fraction {
		t.Errorf("expected Fraction, got %s", ratio.Kind)
	}
}

func TestAddSubRejectsMismatchedUnits(t *testing.T) {
	_, err := AddSub("+", Curr("USD"), Cnt("Customer"))
	if err == nil {
		t.Fatal("expected a MismatchError")
	}
	var mismatch *MismatchError
	if !asMismatch(err, &mismatch) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
}

func asMismatch(err error, target **MismatchError) bool {
	m, ok := err.(*MismatchError)
	if ok {
		*target = m
	}
	return ok
}

func TestCompareAlwaysReturnsBoolean(t *testing.T) {
	b, err := Compare("<", Curr("USD"), Curr("USD"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Kind != Boolean {
		t.Errorf("expected Boolean, got %s", b.Kind)
	}
}

func TestIndexRequiresTimeSeries(t *testing.T) {
	if _, err := Index(Curr("USD")); err == nil {
		t.Fatal("expected an error indexing a non-series type")
	}
	elem, err := Index(Series(Curr("USD")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !elem.Equal(Curr("USD")) {
		t.Errorf("Index returned %s, want Currency<USD>", elem)
	}
}
