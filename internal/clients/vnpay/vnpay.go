package vnpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
)

// Gateway field names and codes per the VNPay v2.1.0 spec.
const (
	Version            = "2.1.0"
	CommandPay         = "pay"
	CurrencyVND        = "VND"
	ResponseCodeOK     = "00"
	FieldSecureHash    = "vnp_SecureHash"
	FieldHashType      = "vnp_SecureHashType"
	FieldResponseCode  = "vnp_ResponseCode"
	FieldTxnRef        = "vnp_TxnRef"
	FieldAmount        = "vnp_Amount"
	FieldTransactionNo = "vnp_TransactionNo"
	FieldBankCode      = "vnp_BankCode"
	FieldPayDate       = "vnp_PayDate"
)

const (
	dateLayout    = "20060102150405"
	expireWindow  = 30 * time.Minute
	defaultLocale = "vn"
)

// Config carries everything needed to sign outbound requests and verify
// callbacks. It is validated once in New and read-only afterwards, so one
// Client is safe to share across requests.
type Config struct {
	TmnCode    string
	HashSecret string
	GatewayURL string
	ReturnURL  string
	HashAlgo   string // SHA256 or SHA512 (default)
}

type Client struct {
	log *logger.Logger
	cfg Config
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	missing := []string{}
	if strings.TrimSpace(cfg.TmnCode) == "" {
		missing = append(missing, "TmnCode")
	}
	if strings.TrimSpace(cfg.HashSecret) == "" {
		missing = append(missing, "HashSecret")
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		missing = append(missing, "GatewayURL")
	}
	if strings.TrimSpace(cfg.ReturnURL) == "" {
		missing = append(missing, "ReturnURL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("vnpay config missing: %s", strings.Join(missing, ", "))
	}
	switch strings.ToUpper(cfg.HashAlgo) {
	case "":
		cfg.HashAlgo = "SHA512"
	case "SHA256", "SHA512":
		cfg.HashAlgo = strings.ToUpper(cfg.HashAlgo)
	default:
		return nil, fmt.Errorf("vnpay unsupported hash algo %q", cfg.HashAlgo)
	}
	return &Client{log: log.With("client", "VNPay"), cfg: cfg}, nil
}

type PaymentRequest struct {
	Amount    float64 // in VND
	TxnRef    string
	OrderInfo string
	ClientIP  string
	Locale    string // "vn" or "en"
	OrderType string
	// CreateTime defaults to time.Now(); tests pin it for determinism.
	CreateTime time.Time
}

type param struct {
	key   string
	value string
}

// CreatePaymentURL builds the signed redirect URL. The signature is computed
// over the lexicographically sorted parameter set; the final query string
// keeps insertion order, which the gateway accepts since it re-sorts before
// verifying.
func (c *Client) CreatePaymentURL(req PaymentRequest) (string, error) {
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return "", fmt.Errorf("vnpay invalid amount: %v", req.Amount)
	}
	if strings.TrimSpace(req.TxnRef) == "" {
		return "", fmt.Errorf("vnpay missing txn ref")
	}

	locale := req.Locale
	if locale == "" {
		locale = defaultLocale
	}
	orderType := req.OrderType
	if orderType == "" {
		orderType = "other"
	}
	createTime := req.CreateTime
	if createTime.IsZero() {
		createTime = time.Now()
	}

	// amount is sent in fixed-point with two implied decimals
	scaled := int64(math.Round(req.Amount * 100))

	params := []param{
		{"vnp_Version", Version},
		{"vnp_Command", CommandPay},
		{"vnp_TmnCode", c.cfg.TmnCode},
		{"vnp_Locale", locale},
		{"vnp_CurrCode", CurrencyVND},
		{FieldTxnRef, req.TxnRef},
		{"vnp_OrderInfo", req.OrderInfo},
		{"vnp_OrderType", orderType},
		{FieldAmount, strconv.FormatInt(scaled, 10)},
		{"vnp_ReturnUrl", c.cfg.ReturnURL},
		{"vnp_IpAddr", req.ClientIP},
		{"vnp_CreateDate", createTime.Format(dateLayout)},
		{"vnp_ExpireDate", createTime.Add(expireWindow).Format(dateLayout)},
	}

	asMap := make(map[string]string, len(params))
	for _, p := range params {
		asMap[p.key] = p.value
	}
	signature := c.sign(canonicalize(asMap))
	params = append(params, param{FieldSecureHash, signature})

	var sb strings.Builder
	sb.WriteString(c.cfg.GatewayURL)
	sb.WriteString("?")
	for i, p := range params {
		if i > 0 {
			sb.WriteString("&")
		}
		sb.WriteString(p.key)
		sb.WriteString("=")
		sb.WriteString(url.QueryEscape(p.value))
	}
	return sb.String(), nil
}

// VerifyCallback recomputes the signature over the callback params (minus the
// hash fields) and compares it to the supplied one. A mismatch returns false,
// never an error: callers must treat false as "do not trust this callback".
func (c *Client) VerifyCallback(params map[string]string) bool {
	supplied, err := hex.DecodeString(strings.ToLower(params[FieldSecureHash]))
	if err != nil || len(supplied) == 0 {
		return false
	}
	stripped := make(map[string]string, len(params))
	for k, v := range params {
		if k == FieldSecureHash || k == FieldHashType {
			continue
		}
		stripped[k] = v
	}
	expected := c.signRaw(canonicalize(stripped))
	// constant-time compare: the digest is the security boundary
	return hmac.Equal(expected, supplied)
}

// canonicalize sorts keys bytewise and joins form-encoded pairs. Values use
// query escaping, so spaces become "+" and not "%20": the gateway's own
// verifier expects exactly this encoding.
func canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString("&")
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteString("=")
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

func (c *Client) sign(payload string) string {
	return hex.EncodeToString(c.signRaw(payload))
}

func (c *Client) signRaw(payload string) []byte {
	var mac hash.Hash
	if c.cfg.HashAlgo == "SHA256" {
		mac = hmac.New(sha256.New, []byte(c.cfg.HashSecret))
	} else {
		mac = hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	}
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

// ParseAmount recovers the real VND amount from a callback's vnp_Amount.
func ParseAmount(raw string) (int64, error) {
	scaled, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("vnpay bad amount %q: %w", raw, err)
	}
	return scaled / 100, nil
}
