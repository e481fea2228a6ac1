package unsubscribe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/metrics"
)

// userAgent identifies the tool on unsubscribe endpoints
const userAgent = "nothx/1.0 (Email Unsubscribe Automation)"

// maxBodyRead bounds how much of a response body is inspected
const maxBodyRead = 1000

// successPhrases are body fragments that indicate a completed unsubscribe
// even when the endpoint returns an unhelpful status code.
var successPhrases = []string{
	"successfully unsubscribed",
	"you have been unsubscribed",
	"unsubscribe successful",
	"removed from",
	"no longer receive",
	"subscription cancelled",
	"subscription canceled",
	"thank you for unsubscribing",
}

// Method identifies which unsubscribe mechanism was attempted
type Method string

const (
	MethodOneClick Method = "one_click"
	MethodGet      Method = "get"
	MethodMailto   Method = "mailto"
	MethodNone     Method = "none"
)

// Result records the outcome of one unsubscribe attempt
type Result struct {
	Success    bool   `json:"success"`
	Method     Method `json:"method"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Unsubscriber executes unsubscribe requests for a sender. Methods are
// tried in order of reliability: RFC 8058 one-click POST, then a plain
// GET, then a mailto message through the configured SMTP account.
type Unsubscriber struct {
	smtpCfg config.SMTPConfig
	client  *http.Client
	logger  *zap.Logger
}

// New creates a new unsubscriber
func New(smtpCfg config.SMTPConfig, timeout time.Duration, logger *zap.Logger) *Unsubscriber {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Unsubscriber{
		smtpCfg: smtpCfg,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Execute attempts to unsubscribe using the header's advertised targets
func (u *Unsubscriber) Execute(ctx context.Context, header *core.EmailHeader) Result {
	httpURL := header.UnsubscribeURL()
	mailto := header.UnsubscribeMailto()

	if header.ListUnsubscribePost && httpURL != "" {
		if res := u.oneClick(ctx, httpURL); res.Success {
			return u.record(header.Domain(), res)
		}
	}

	if httpURL != "" {
		if res := u.get(ctx, httpURL); res.Success {
			return u.record(header.Domain(), res)
		}
	}

	if mailto != "" && u.smtpCfg.Host != "" {
		return u.record(header.Domain(), u.sendMailto(mailto))
	}

	return u.record(header.Domain(), Result{
		Success: false,
		Method:  MethodNone,
		Error:   "no unsubscribe method available",
	})
}

// oneClick performs the RFC 8058 POST
func (u *Unsubscriber) oneClick(ctx context.Context, target string) Result {
	form := url.Values{"List-Unsubscribe": {"One-Click"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{Method: MethodOneClick, Error: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return u.do(req, MethodOneClick)
}

// get performs the plain GET fallback
func (u *Unsubscriber) get(ctx context.Context, target string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Method: MethodGet, Error: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	return u.do(req, MethodGet)
}

func (u *Unsubscriber) do(req *http.Request, method Method) Result {
	resp, err := u.client.Do(req)
	if err != nil {
		return Result{Method: method, Error: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))
	success := acceptedStatus(resp.StatusCode) || hasSuccessIndicator(string(body))

	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return Result{
		Success:    success,
		Method:     method,
		HTTPStatus: resp.StatusCode,
		Detail:     detail,
	}
}

// sendMailto parses the mailto target and sends the unsubscribe message
// through the configured SMTP account.
func (u *Unsubscriber) sendMailto(mailto string) Result {
	toAddress := mailto
	subject := "unsubscribe"
	body := "Please unsubscribe me from this mailing list."

	if i := strings.Index(mailto, "?"); i >= 0 {
		toAddress = mailto[:i]
		if params, err := url.ParseQuery(mailto[i+1:]); err == nil {
			if v := params.Get("subject"); v != "" {
				subject = v
			}
			if v := params.Get("body"); v != "" {
				body = v
			}
		}
	}

	msg := strings.NewReader(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		u.smtpCfg.From, toAddress, subject, body))

	addr := fmt.Sprintf("%s:%d", u.smtpCfg.Host, u.smtpCfg.Port)
	auth := sasl.NewPlainClient("", u.smtpCfg.Username, u.smtpCfg.Password)

	// Port 465 is implicit TLS; anything else negotiates STARTTLS.
	var err error
	if u.smtpCfg.Port == 465 {
		err = smtp.SendMailTLS(addr, auth, u.smtpCfg.From, []string{toAddress}, msg)
	} else {
		err = smtp.SendMail(addr, auth, u.smtpCfg.From, []string{toAddress}, msg)
	}
	if err != nil {
		return Result{Method: MethodMailto, Error: err.Error()}
	}
	return Result{
		Success: true,
		Method:  MethodMailto,
		Detail:  fmt.Sprintf("sent unsubscribe email to %s", toAddress),
	}
}

func (u *Unsubscriber) record(domain string, res Result) Result {
	outcome := "failure"
	if res.Success {
		outcome = "success"
	}
	metrics.UnsubAttemptsTotal.WithLabelValues(string(res.Method), outcome).Inc()

	if res.Success {
		u.logger.Info("Unsubscribe attempt succeeded",
			zap.String("domain", domain),
			zap.String("method", string(res.Method)))
	} else {
		u.logger.Warn("Unsubscribe attempt failed",
			zap.String("domain", domain),
			zap.String("method", string(res.Method)),
			zap.String("error", res.Error))
	}
	return res
}

func acceptedStatus(code int) bool {
	switch code {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return true
	}
	return false
}

func hasSuccessIndicator(body string) bool {
	lower := strings.ToLower(body)
	for _, phrase := range successPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
