package payment

import "testing"

func TestPayment_Recompute(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		installments []Installment
		wantBalance  float64
		wantStatus   Status
	}{
		{
			name:        "no installments",
			total:       50000,
			wantBalance: 50000,
			wantStatus:  StatusPending,
		},
		{
			name:         "partial",
			total:        50000,
			installments: []Installment{{Amount: 20000}},
			wantBalance:  30000,
			wantStatus:   StatusPartPayment,
		},
		{
			name:  "unapproved installments still count",
			total: 50000,
			installments: []Installment{
				{Amount: 20000, Approved: true},
				{Amount: 30000},
			},
			wantBalance: 0,
			wantStatus:  StatusPaid,
		},
		{
			name:         "exactly paid",
			total:        50000,
			installments: []Installment{{Amount: 50000}},
			wantBalance:  0,
			wantStatus:   StatusPaid,
		},
		{
			name:         "overpaid",
			total:        50000,
			installments: []Installment{{Amount: 60000}},
			wantBalance:  -10000,
			wantStatus:   StatusPaid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pmt := Payment{TotalAmount: tt.total, Installments: tt.installments}
			pmt.Recompute()
			if pmt.Balance != tt.wantBalance {
				t.Errorf("Balance = %v, want %v", pmt.Balance, tt.wantBalance)
			}
			if pmt.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", pmt.Status, tt.wantStatus)
			}
		})
	}
}

func TestPayment_totals(t *testing.T) {
	pmt := Payment{
		TotalAmount: 100,
		Installments: []Installment{
			{Amount: 30, Approved: true},
			{Amount: 20},
			{Amount: 10, Approved: true},
		},
	}
	if got := pmt.RecordedTotal(); got != 60 {
		t.Errorf("RecordedTotal() = %v, want 60", got)
	}
	if got := pmt.ApprovedTotal(); got != 40 {
		t.Errorf("ApprovedTotal() = %v, want 40", got)
	}
}

func TestPayment_FindInstallmentByReference(t *testing.T) {
	pmt := Payment{
		Installments: []Installment{
			{ID: "a", Reference: "KLS-1"},
			{ID: "b"},
		},
	}
	if inst := pmt.FindInstallmentByReference("KLS-1"); inst == nil || inst.ID != "a" {
		t.Errorf("FindInstallmentByReference(KLS-1) = %+v, want installment a", inst)
	}
	if inst := pmt.FindInstallmentByReference("nope"); inst != nil {
		t.Errorf("FindInstallmentByReference(nope) = %+v, want nil", inst)
	}
	// installments without a reference never match an empty lookup
	if inst := pmt.FindInstallmentByReference(""); inst != nil {
		t.Errorf("FindInstallmentByReference(\"\") = %+v, want nil", inst)
	}
}
