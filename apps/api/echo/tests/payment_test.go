package tests

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/payment"
	"github.com/kelasi/backend/core/payment/gateway"
	"github.com/kelasi/backend/core/user"
	"github.com/kelasi/backend/tests"
)

func recordInstallment(t *testing.T, studentID, ref string, method payment.Method, total, amount float64) payment.Payment {
	t.Helper()
	pmt, err := pmtSvc.RecordInstallment(context.Background(), payment.NewInstallment{
		StudentID:   studentID,
		FeeType:     payment.FeeTuition,
		Session:     "2024/2025",
		Term:        core.TermFirst,
		TotalAmount: total,
		Amount:      amount,
		Method:      method,
		Reference:   ref,
	})
	if err != nil {
		t.Fatalf("RecordInstallment() failed: %v", err)
	}
	return pmt
}

func Test_paymentApi_record(t *testing.T) {
	std := testutil.CreateStudent(t, stdRepo, "API-001", "Ada", "Obi", "JSS1")
	bursar := testutil.CreateUser(t, usrRepo, "Bursar", "bursar1", "bursar1@test.cd", "", []string{user.RoleAdminBursar}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach1@test.cd", "", []string{user.RoleTeacher}, true)

	body := marshalObj(t, payment.NewInstallment{
		StudentID:   std.ID,
		FeeType:     payment.FeeTuition,
		Session:     "2024/2025",
		Term:        core.TermFirst,
		TotalAmount: 50000,
		Amount:      20000,
		Method:      payment.MethodCash,
		ProofURL:    "https://files.test.cd/proof/api-001.jpg",
	})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Bursar required", token: getToken(t, teacher), body: body,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Record", token: getToken(t, bursar), body: body, wantCode: http.StatusCreated},
		{name: "Invalid payload", token: getToken(t, bursar), body: []byte(`{"amount": -5}`), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/payments", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	pmts, err := pmtSvc.Query(context.Background(), payment.QueryFilter{StudentID: std.ID})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(pmts) != 1 || len(pmts[0].Installments) != 1 {
		t.Fatalf("payments = %+v; want one payment with one installment", pmts)
	}
	if pmts[0].Status != payment.StatusPartPayment {
		t.Errorf("Status = %v, want part-payment", pmts[0].Status)
	}
}

func Test_paymentApi_approve(t *testing.T) {
	std := testutil.CreateStudent(t, stdRepo, "API-002", "Ben", "Eze", "JSS2")
	bursar := testutil.CreateUser(t, usrRepo, "Bursar", "bursar2", "bursar2@test.cd", "", []string{user.RoleAdminBursar}, true)
	pmt := recordInstallment(t, std.ID, "", payment.MethodBankTransfer, 50000, 20000)
	instID := pmt.Installments[0].ID
	token := getToken(t, bursar)

	path := fmt.Sprintf("/v1/payments/%s/installments/%s/approve", pmt.ID, instID)

	// receipts only exist for approved installments
	req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/payments/%s/installments/%s/receipt", pmt.ID, instID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("receipt before approval: code = %v, want %v", rec.Code, http.StatusBadRequest)
	}

	req, rec = newAuthRequest(http.MethodPost, path, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var approved payment.Payment
	if err := json.Unmarshal(rec.Body.Bytes(), &approved); err != nil {
		t.Fatalf("unmarshalling payment: %v", err)
	}
	inst := approved.FindInstallment(instID)
	if !inst.Approved || inst.ApprovedBy != bursar.ID {
		t.Errorf("installment = %+v; want approved by %q", inst, bursar.ID)
	}

	// approving twice is rejected
	req, rec = newAuthRequest(http.MethodPost, path, token)
	app.ServeHTTP(rec, req)
	tt := httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, httpErr{Error: payment.ErrInstallmentApproved.Error()}),
	}
	checkCodeAndData(t, tt, rec)

	// unknown installment
	req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/payments/%s/installments/nope/approve", pmt.ID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("approve unknown installment: code = %v, want %v", rec.Code, http.StatusNotFound)
	}

	// the receipt is now available
	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/payments/%s/installments/%s/receipt", pmt.ID, instID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("receipt: code = %v, want %v", rec.Code, http.StatusOK)
	}
}

func Test_paymentApi_studentBalance(t *testing.T) {
	std := testutil.CreateStudent(t, stdRepo, "API-003", "Cal", "Ude", "JSS3")
	bursar := testutil.CreateUser(t, usrRepo, "Bursar", "bursar3", "bursar3@test.cd", "", []string{user.RoleAdminBursar}, true)
	recordInstallment(t, std.ID, "", payment.MethodCash, 50000, 30000)

	req, rec := newAuthRequest(http.MethodGet, "/v1/payments/students/"+std.ID+"/balance", getToken(t, bursar))
	app.ServeHTTP(rec, req)

	tt := httpTest{
		wantCode: http.StatusOK,
		wantData: marshalObj(t, payment.BalanceSummary{
			StudentID: std.ID,
			TotalFees: 50000,
			TotalPaid: 30000,
			Balance:   20000,
		}),
	}
	checkCodeAndData(t, tt, rec)
}

func paystackSign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Declared ahead of the other webhook tests so it runs before any of them
// stores gateway keys: with no configuration document yet the provider must
// still see a bare status code, never an error body.
func Test_paymentApi_webhookUnconfigured(t *testing.T) {
	event := []byte(`{"event":"charge.success","data":{"reference":"KLS-none"}}`)
	req, rec := newRequest(http.MethodPost, "/v1/payments/webhooks/paystack", event)
	req.Header.Set("x-paystack-signature", paystackSign("irrelevant", event))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %v, want %v", rec.Code, http.StatusInternalServerError)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func Test_paymentApi_paystackWebhook(t *testing.T) {
	secret := "sk_test_webhook"
	if _, err := gwRepo.SaveConfig(context.Background(), gateway.Config{
		ActiveProvider:    gateway.ProviderPaystack,
		Currency:          gateway.DefaultCurrency,
		PaystackSecretKey: secret,
		FlutterwaveHash:   "fw-hash",
	}); err != nil {
		t.Fatalf("SaveConfig() failed: %v", err)
	}

	std := testutil.CreateStudent(t, stdRepo, "API-004", "Dan", "Oku", "SS1")
	recordInstallment(t, std.ID, "KLS-web-1", payment.MethodPaystack, 50000, 20000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Path[len("/transaction/verify/"):]
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"reference": ref,
				"amount":    2000000,
				"currency":  "NGN",
				"status":    "success",
			},
		})
	}))
	defer srv.Close()
	orig := gateway.PaystackBaseURL
	gateway.PaystackBaseURL = srv.URL
	defer func() { gateway.PaystackBaseURL = orig }()

	event, _ := json.Marshal(map[string]interface{}{
		"event": "charge.success",
		"data":  map[string]string{"reference": "KLS-web-1", "status": "success"},
	})

	t.Run("bad signature", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhooks/paystack", event)
		req.Header.Set("x-paystack-signature", paystackSign("wrong", event))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %v, want %v", rec.Code, http.StatusUnauthorized)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("body = %q, want empty", rec.Body.String())
		}
	})

	t.Run("missing signature", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhooks/paystack", event)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %v, want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("settles the charge", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhooks/paystack", event)
		req.Header.Set("x-paystack-signature", paystackSign(secret, event))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		pmts, err := pmtSvc.Query(context.Background(), payment.QueryFilter{StudentID: std.ID})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		inst := pmts[0].FindInstallmentByReference("KLS-web-1")
		if !inst.Approved || inst.ApprovedBy != payment.SystemApprover {
			t.Errorf("installment = %+v; want approved by %q", inst, payment.SystemApprover)
		}

		// redelivery is still a 200
		req, rec = newRequest(http.MethodPost, "/v1/payments/webhooks/paystack", event)
		req.Header.Set("x-paystack-signature", paystackSign(secret, event))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("redelivery: code = %v, want %v", rec.Code, http.StatusOK)
		}
	})

	t.Run("ignored event", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"event": "transfer.success",
			"data":  map[string]string{"reference": "KLS-web-1"},
		})
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhooks/paystack", body)
		req.Header.Set("x-paystack-signature", paystackSign(secret, body))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v, want %v", rec.Code, http.StatusOK)
		}
	})
}

func Test_paymentApi_flutterwaveWebhook(t *testing.T) {
	hash := "fw-webhook-hash"
	if _, err := gwRepo.SaveConfig(context.Background(), gateway.Config{
		ActiveProvider:       gateway.ProviderFlutterwave,
		Currency:             gateway.DefaultCurrency,
		FlutterwaveSecretKey: "FLWSECK_TEST-web",
		FlutterwaveHash:      hash,
	}); err != nil {
		t.Fatalf("SaveConfig() failed: %v", err)
	}

	std := testutil.CreateStudent(t, stdRepo, "API-005", "Efe", "Ibe", "SS2")
	recordInstallment(t, std.ID, "KLS-web-2", payment.MethodFlutterwave, 50000, 20000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"tx_ref":   "KLS-web-2",
				"amount":   20000,
				"currency": "NGN",
				"status":   "successful",
			},
		})
	}))
	defer srv.Close()
	orig := gateway.FlutterwaveBaseURL
	gateway.FlutterwaveBaseURL = srv.URL
	defer func() { gateway.FlutterwaveBaseURL = orig }()

	event, _ := json.Marshal(map[string]interface{}{
		"event": "charge.completed",
		"data":  map[string]interface{}{"id": 4321, "tx_ref": "KLS-web-2", "status": "successful"},
	})

	t.Run("bad signature", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhooks/flutterwave", event)
		req.Header.Set("verif-hash", "wrong")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %v, want %v", rec.Code, http.StatusUnauthorized)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("body = %q, want empty", rec.Body.String())
		}
	})

	t.Run("settles the charge", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/payments/webhooks/flutterwave", event)
		req.Header.Set("verif-hash", hash)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		pmts, err := pmtSvc.Query(context.Background(), payment.QueryFilter{StudentID: std.ID})
		if err != nil {
			t.Fatalf("Query() failed: %v", err)
		}
		inst := pmts[0].FindInstallmentByReference("KLS-web-2")
		if !inst.Approved || inst.ApprovedBy != payment.SystemApprover {
			t.Errorf("installment = %+v; want approved by %q", inst, payment.SystemApprover)
		}
	})
}

func Test_paymentApi_gatewayConfig(t *testing.T) {
	owner := testutil.CreateUser(t, usrRepo, "Owner", "owner1", "owner1@test.cd", "", []string{user.RoleAdminOwner}, true)
	bursar := testutil.CreateUser(t, usrRepo, "Bursar", "bursar4", "bursar4@test.cd", "", []string{user.RoleAdminBursar}, true)

	body := marshalObj(t, gateway.UpdateConfig{
		ActiveProvider:    gateway.ProviderPaystack,
		PaystackSecretKey: "sk_cfg",
	})

	// bursars manage payments, not provider credentials
	req, rec := newAuthRequest(http.MethodPut, "/v1/payments/config", getToken(t, bursar), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %v, want %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPut, "/v1/payments/config", getToken(t, owner), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	// secret keys never appear in responses
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling config: %v", err)
	}
	if _, ok := resp["paystack_secret_key"]; ok {
		t.Error("paystack_secret_key leaked in response")
	}
	if resp["active_provider"] != string(gateway.ProviderPaystack) {
		t.Errorf("active_provider = %v, want paystack", resp["active_provider"])
	}
}
