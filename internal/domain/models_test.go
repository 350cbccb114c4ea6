package domain

import "testing"

func fptr(f float64) *float64 { return &f }

func TestEffectivePrice(t *testing.T) {
	cases := []struct {
		name    string
		product Product
		want    float64
	}{
		{"no discount", Product{UnitPrice: 10}, 10},
		{"with discount", Product{UnitPrice: 10, DiscountPrice: fptr(7.5)}, 7.5},
		{"zero discount ignored", Product{UnitPrice: 10, DiscountPrice: fptr(0)}, 10},
		{"negative discount ignored", Product{UnitPrice: 10, DiscountPrice: fptr(-1)}, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.product.EffectivePrice(); got != tc.want {
				t.Errorf("EffectivePrice() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCartTotal(t *testing.T) {
	cart := &Cart{
		OwnerID: 1,
		Lines: []CartLine{
			{ID: 1, Product: Product{ID: 10, UnitPrice: 10}, Quantity: 2},
			{ID: 2, Product: Product{ID: 11, UnitPrice: 4, DiscountPrice: fptr(3)}, Quantity: 3},
		},
	}

	if got := cart.Total(); got != 29 {
		t.Errorf("Total() = %v, want 29", got)
	}
}

func TestCartTotal_NilAndEmpty(t *testing.T) {
	var nilCart *Cart
	if got := nilCart.Total(); got != 0 {
		t.Errorf("nil cart Total() = %v, want 0", got)
	}
	empty := &Cart{OwnerID: 1}
	if got := empty.Total(); got != 0 {
		t.Errorf("empty cart Total() = %v, want 0", got)
	}
}

func TestCartClone_Independent(t *testing.T) {
	cart := &Cart{
		OwnerID: 1,
		Lines:   []CartLine{{ID: 1, Product: Product{ID: 10, UnitPrice: 10}, Quantity: 1}},
	}

	cp := cart.Clone()
	cp.Lines[0].Quantity = 99

	if cart.Lines[0].Quantity != 1 {
		t.Error("mutating the clone changed the original cart")
	}
}

func TestShippingAddressMissingField(t *testing.T) {
	full := ShippingAddress{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62704", Country: "US"}
	if f := full.MissingField(); f != "" {
		t.Errorf("expected no missing field, got %q", f)
	}

	noZip := full
	noZip.ZipCode = ""
	if f := noZip.MissingField(); f != "zipCode" {
		t.Errorf("expected missing field 'zipCode', got %q", f)
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentStripe, PaymentPaypal, PaymentCreditCard} {
		if !m.Valid() {
			t.Errorf("expected %s to be valid", m)
		}
	}
	if PaymentMethod("BITCOIN").Valid() {
		t.Error("expected unknown method to be invalid")
	}
}
