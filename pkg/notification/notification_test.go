package notification_test

import (
	"context"
	"encoding/base64"
	"errors"
	"html/template"
	"io"
	gohttp "net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/http"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/notification"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

type recorder struct {
	sent []*mail.Message
}

func (r *recorder) Send(_ context.Context, m *mail.Message) error {
	r.sent = append(r.sent, m)
	return nil
}

type textRecorder struct {
	to  []string
	msg string
	err error
}

func (t *textRecorder) Send(_ context.Context, to []string, msg string) error {
	t.to, t.msg = to, msg
	return t.err
}

var tmpl = template.Must(template.New("confirm").Parse(`<p>Order {{.Invoice}} received</p>`))

type orderPlaced struct{ invoice string }

func (orderPlaced) Via() []string { return []string{notification.Mail, notification.SMS} }

func (n orderPlaced) ToMail() notification.MailData {
	return notification.MailData{
		Subject:  "Order " + n.invoice,
		Template: tmpl,
		Data:     map[string]string{"Invoice": n.invoice},
	}
}

func (n orderPlaced) ToSMS() string { return "Order " + n.invoice + " received" }

func TestSendFansOutToMailAndSMS(t *testing.T) {
	mr := &recorder{}
	mail.SetMailer(mr)
	defer mail.SetMailer(nil)
	tr := &textRecorder{}
	notification.SetTexter(tr)
	defer notification.SetTexter(nil)

	err := notification.Send(context.Background(),
		notification.Recipient{Email: "wanjiru@example.com", Phone: "0712345678"},
		orderPlaced{invoice: "INV-20250101120000-1"})
	require.NoError(t, err)

	require.Len(t, mr.sent, 1)
	assert.Equal(t, "Order INV-20250101120000-1", mr.sent[0].Subject)
	assert.Contains(t, mr.sent[0].Body, "<p>Order INV-20250101120000-1 received</p>")
	assert.Equal(t, []string{"0712345678"}, tr.to)
}

func TestMissingPhoneSkipsSMSAndErrorsAreJoined(t *testing.T) {
	mail.SetMailer(&recorder{})
	defer mail.SetMailer(nil)
	tr := &textRecorder{err: errors.New("gateway down")}
	notification.SetTexter(tr)
	defer notification.SetTexter(nil)

	err := notification.Send(context.Background(), notification.Recipient{Email: "a@b.co"}, orderPlaced{invoice: "X"})
	assert.NoError(t, err)
	assert.Empty(t, tr.to)

	err = notification.Send(context.Background(), notification.Recipient{Email: "a@b.co", Phone: "0712"}, orderPlaced{invoice: "X"})
	assert.ErrorContains(t, err, "gateway down")
}

func TestAfricasTalkingPostsForm(t *testing.T) {
	body := `{"SMSMessageData":{"Message":"Sent to 1/1","Recipients":[{"number":"+254712345678","status":"Success","statusCode":101,"messageId":"ATPid_1"}]}}`
	sc := &testkit.Scenario{
		IsMockRequired: true,
		NetUtilMockStep: []testkit.MockStep{{
			Method:   "httprequest",
			IsMock:   true,
			MatchURL: "https://sms.test/version1/messaging",
			ReturnData: testkit.MockReturnData{
				StatusCode: 201,
				Body:       base64.StdEncoding.EncodeToString([]byte(body)),
			},
		}},
	}
	mt := testkit.NewMockTransport(sc)
	var captured url.Values
	mt.OnRequest(func(r *gohttp.Request) {
		raw, _ := io.ReadAll(r.Body)
		captured, _ = url.ParseQuery(string(raw))
		assert.Equal(t, "secret", r.Header.Get("apiKey"))
	})
	http.DefaultClient.Transport = mt
	defer http.ResetTransport()

	at := notification.AfricasTalking{BaseURL: "https://sms.test/version1/messaging", Username: "sandbox", APIKey: "secret"}
	require.NoError(t, at.Send(context.Background(), []string{"0712345678"}, "hello"))

	assert.Empty(t, mt.AssertAllCalled())
	assert.Equal(t, "+254712345678", captured.Get("to"))
	assert.Equal(t, "sandbox", captured.Get("username"))
	assert.True(t, strings.HasPrefix(captured.Get("message"), "hello"))
}

func TestInternationalPhone(t *testing.T) {
	assert.Equal(t, "+254712345678", notification.InternationalPhone("0712 345 678"))
	assert.Equal(t, "+254712345678", notification.InternationalPhone("254712345678"))
	assert.Equal(t, "+254712345678", notification.InternationalPhone("+254712345678"))
}
