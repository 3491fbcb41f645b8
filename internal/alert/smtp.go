package alert

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/gatekeeper/internal/observability/logger"
)

// SMTPNotifier manda el evento por mail al buzón de seguridad.
type SMTPNotifier struct {
	Host               string
	Port               int
	From               string
	To                 string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

func (s *SMTPNotifier) Notify(ctx context.Context, ev Event) {
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", fmt.Sprintf("[gatekeeper] security alert: %s (%s)", ev.Kind, ev.Principal))
	m.SetBody("text/plain", fmt.Sprintf(
		"kind: %s\nprincipal: %s\nseries: %s\ndetail: %s\naction taken: %s\n",
		ev.Kind, ev.Principal, ev.Series, ev.Detail, ev.Action,
	))

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		// El mail es best effort; la medida correctiva ya se ejecutó y el
		// evento quedó en el log.
		logger.From(ctx).Error("alert mail failed", logger.Err(err))
	}
}
