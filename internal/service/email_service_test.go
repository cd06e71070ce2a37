package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"littlesteps/internal/logger"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendWelcomeEmail(t *testing.T) {
	client := &fakeSES{}
	svc := newEmailServiceWithClient(client, logger.Nop(), "hello@littlesteps.test", "Little Steps", "https://littlesteps.test", false)

	if err := svc.SendWelcomeEmail(context.Background(), "new@example.com", "Sam"); err != nil {
		t.Fatalf("SendWelcomeEmail() error = %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("SES called %d times, want 1", len(client.inputs))
	}
	in := client.inputs[0]
	if got := aws.ToString(in.FromEmailAddress); got != "Little Steps <hello@littlesteps.test>" {
		t.Errorf("from = %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "new@example.com" {
		t.Errorf("to = %v", in.Destination.ToAddresses)
	}
	text := aws.ToString(in.Content.Simple.Body.Text.Data)
	html := aws.ToString(in.Content.Simple.Body.Html.Data)
	if !strings.Contains(text, "Sam") || !strings.Contains(html, "Sam") {
		t.Error("bodies do not greet the recipient by name")
	}
	if !strings.Contains(html, "https://littlesteps.test") {
		t.Error("html body missing app link")
	}
}

func TestSendEmailError(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	svc := newEmailServiceWithClient(client, logger.Nop(), "hello@littlesteps.test", "", "", false)

	err := svc.SendEmail(context.Background(), "a@example.com", "Hi", "<p>Hi</p>", "Hi")
	if err == nil || !strings.Contains(err.Error(), "a@example.com") {
		t.Errorf("SendEmail() error = %v, want wrapped failure", err)
	}
}

func TestDisabledEmailServiceIsNoop(t *testing.T) {
	svc, err := NewEmailService(context.Background(), logger.Nop(), "us-east-1", "", "Little Steps", "", false)
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}
	if svc.IsEnabled() {
		t.Fatal("service enabled without a from address")
	}
	if err := svc.SendWelcomeEmail(context.Background(), "a@example.com", "Sam"); err != nil {
		t.Errorf("SendWelcomeEmail() on disabled service error = %v", err)
	}
}

func TestHTMLTemplateEscapesNames(t *testing.T) {
	html, text, err := renderEmail("welcome", welcomeData{Name: "<b>Sam</b>"})
	if err != nil {
		t.Fatalf("renderEmail() error = %v", err)
	}
	if strings.Contains(html, "<b>Sam</b>") {
		t.Error("html body contains unescaped name")
	}
	if !strings.Contains(text, "<b>Sam</b>") {
		t.Error("text body should carry the name verbatim")
	}
}
