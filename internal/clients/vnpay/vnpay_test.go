package vnpay

import (
	"math"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := New(Config{
		TmnCode:    "TESTCODE",
		HashSecret: "supersecret",
		GatewayURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:3000/payment/return",
	}, log)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewValidatesConfig(t *testing.T) {
	log, _ := logger.New("test")
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"complete", Config{TmnCode: "a", HashSecret: "b", GatewayURL: "c", ReturnURL: "d"}, true},
		{"missing_secret", Config{TmnCode: "a", GatewayURL: "c", ReturnURL: "d"}, false},
		{"missing_tmncode", Config{HashSecret: "b", GatewayURL: "c", ReturnURL: "d"}, false},
		{"missing_gateway", Config{TmnCode: "a", HashSecret: "b", ReturnURL: "d"}, false},
		{"missing_return", Config{TmnCode: "a", HashSecret: "b", GatewayURL: "c"}, false},
		{"bad_algo", Config{TmnCode: "a", HashSecret: "b", GatewayURL: "c", ReturnURL: "d", HashAlgo: "MD5"}, false},
		{"sha256_ok", Config{TmnCode: "a", HashSecret: "b", GatewayURL: "c", ReturnURL: "d", HashAlgo: "sha256"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, log)
			if tc.ok && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCreatePaymentURLAmountBoundaries(t *testing.T) {
	c := testClient(t)
	base := PaymentRequest{TxnRef: "ref1", OrderInfo: "order 1", ClientIP: "127.0.0.1"}

	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		req := base
		req.Amount = amount
		if _, err := c.CreatePaymentURL(req); err == nil {
			t.Fatalf("amount %v: expected error", amount)
		}
	}

	req := base
	req.Amount = 0.01
	if _, err := c.CreatePaymentURL(req); err != nil {
		t.Fatalf("amount 0.01: unexpected error %v", err)
	}
}

func TestCreatePaymentURLShape(t *testing.T) {
	c := testClient(t)
	created := time.Date(2025, 3, 14, 15, 9, 26, 0, time.Local)
	raw, err := c.CreatePaymentURL(PaymentRequest{
		Amount:     1500000,
		TxnRef:     "ORD123",
		OrderInfo:  "Thanh toan don hang ORD123",
		ClientIP:   "203.0.113.7",
		CreateTime: created,
	})
	if err != nil {
		t.Fatalf("create url: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := u.Query()

	if got := q.Get(FieldAmount); got != "150000000" {
		t.Errorf("vnp_Amount = %q, want 150000000 (amount x100)", got)
	}
	if got := q.Get("vnp_CreateDate"); got != "20250314150926" {
		t.Errorf("vnp_CreateDate = %q", got)
	}
	if got := q.Get("vnp_ExpireDate"); got != "20250314153926" {
		t.Errorf("vnp_ExpireDate = %q, want create+30m", got)
	}
	if q.Get(FieldSecureHash) == "" {
		t.Errorf("missing vnp_SecureHash")
	}
	// spaces must be form-encoded as +, not %20
	if strings.Contains(raw, "%20") {
		t.Errorf("url uses %%20 for spaces: %s", raw)
	}
	if !strings.Contains(raw, "Thanh+toan+don+hang+ORD123") {
		t.Errorf("order info not +-encoded: %s", raw)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	c := testClient(t)
	raw, err := c.CreatePaymentURL(PaymentRequest{
		Amount:    250000,
		TxnRef:    "ORD456",
		OrderInfo: "don hang 456",
		ClientIP:  "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("create url: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	params := map[string]string{}
	for k, vs := range u.Query() {
		params[k] = vs[0]
	}

	if !c.VerifyCallback(params) {
		t.Fatalf("signature produced by CreatePaymentURL should verify")
	}

	// case-insensitive comparison of the hex digest
	params[FieldSecureHash] = strings.ToUpper(params[FieldSecureHash])
	if !c.VerifyCallback(params) {
		t.Fatalf("uppercase hash should still verify")
	}

	// the hash-type field must be excluded from the signed set
	params[FieldHashType] = "HmacSHA512"
	if !c.VerifyCallback(params) {
		t.Fatalf("adding vnp_SecureHashType must not break verification")
	}

	// any altered field invalidates the signature
	params[FieldAmount] = "1"
	if c.VerifyCallback(params) {
		t.Fatalf("tampered amount must fail verification")
	}
}

func TestVerifyCallbackRejectsMissingHash(t *testing.T) {
	c := testClient(t)
	if c.VerifyCallback(map[string]string{"vnp_TxnRef": "x"}) {
		t.Fatalf("callback without hash must not verify")
	}
	// the supplied hash must be a hex digest, not arbitrary text
	if c.VerifyCallback(map[string]string{"vnp_TxnRef": "x", FieldSecureHash: "not-hex!"}) {
		t.Fatalf("non-hex hash must not verify")
	}
	if c.VerifyCallback(map[string]string{"vnp_TxnRef": "x", FieldSecureHash: "deadbeef"}) {
		t.Fatalf("truncated digest must not verify")
	}
}

func TestCanonicalizeSortedAndStable(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef":    "ref",
		"vnp_Amount":    "100",
		"vnp_Command":   "pay",
		"vnp_OrderInfo": "hello world",
	}
	first := canonicalize(params)
	second := canonicalize(params)
	if first != second {
		t.Fatalf("canonicalize not stable: %q vs %q", first, second)
	}
	want := "vnp_Amount=100&vnp_Command=pay&vnp_OrderInfo=hello+world&vnp_TxnRef=ref"
	if first != want {
		t.Fatalf("canonicalize = %q, want %q", first, want)
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("150000000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != 1500000 {
		t.Fatalf("ParseAmount = %d, want 1500000", got)
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}
