package paygate

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/config"
	"github.com/marketfresh/checkoutapi/internal/domain"
	apperrors "github.com/marketfresh/checkoutapi/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.GatewayConfig{
		Host:         srv.URL,
		MerchantID:   "merchant-1",
		SharedSecret: "top-secret",
	}, zap.NewNop())
	client.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return client, srv
}

func TestRequestCarriesSignatureHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotBody []byte
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"id":"instr-1"}`))
	})

	id, err := client.CreateInstrumentIdentifier(context.Background(), domain.CardDetails{
		Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: "2030", CVV: "123",
	})
	require.NoError(t, err)
	assert.Equal(t, "instr-1", id)

	assert.Equal(t, "merchant-1", gotHeaders.Get("v-c-merchant-id"))
	assert.Equal(t, "Wed, 01 May 2024 12:00:00 GMT", gotHeaders.Get("Date"))

	// Digest must match the body actually sent.
	sum := sha256.Sum256(gotBody)
	wantDigest := "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
	assert.Equal(t, wantDigest, gotHeaders.Get("Digest"))

	signature := gotHeaders.Get("Signature")
	assert.Contains(t, signature, `keyid="merchant-1"`)
	assert.Contains(t, signature, `algorithm="HmacSHA256"`)
	assert.Contains(t, signature, `headers="host date request-target digest v-c-merchant-id"`)

	// Recompute the signature from the signed-string recipe.
	host := strings.TrimPrefix(srv.URL, "http://")
	signedString := "host: " + host + "\n" +
		"date: Wed, 01 May 2024 12:00:00 GMT\n" +
		"request-target: post /tms/v1/instrumentidentifiers\n" +
		"digest: " + wantDigest + "\n" +
		"v-c-merchant-id: merchant-1"
	mac := hmac.New(sha256.New, []byte("top-secret"))
	mac.Write([]byte(signedString))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Contains(t, signature, `signature="`+want+`"`)
}

func TestErrorsArrayOnOKIsFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"pi-1","errors":[{"type":"INVALID_DATA","message":"expiry in the past"}]}`))
	})

	_, err := client.AttachPaymentInstrument(context.Background(), "cust-1", "instr-1",
		domain.CardDetails{ExpiryMonth: "01", ExpiryYear: "2020"}, domain.Address{})
	require.Error(t, err)

	var ge *apperrors.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Contains(t, ge.Reason, "expiry in the past")
}

func TestCaptureDeclinedIsTerminal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"pay-1","status":"DECLINED"}`))
	})

	card := &domain.SavedCard{ServiceCustomerID: "cust-1"}
	_, err := client.CapturePayment(context.Background(), card, "123", 55, "a1", "fp-1")

	var pd *apperrors.PaymentDeclined
	assert.ErrorAs(t, err, &pd)
}

func TestCaptureReturnsOpaqueReference(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"id":"pay-ref-9","status":"AUTHORIZED"}`))
	})

	card := &domain.SavedCard{ServiceCustomerID: "cust-1"}
	ref, err := client.CapturePayment(context.Background(), card, "123", 55, "a1", "fp-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-ref-9", ref)
	assert.Equal(t, "/pts/v2/payments", gotPath)
}

func TestNon2xxWithoutErrorsArray(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{}`))
	})

	_, err := client.CreateCustomer(context.Background(), domain.Customer{UserID: "user-1"})
	var ge *apperrors.GatewayError
	assert.ErrorAs(t, err, &ge)
}
