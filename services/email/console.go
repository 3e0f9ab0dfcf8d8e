package emailsvc

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

// Outbox keeps a copy of every message a console service sent.
type Outbox struct {
	mu       sync.Mutex
	messages []core.EmailMessage
}

func (o *Outbox) add(msg core.EmailMessage) {
	o.mu.Lock()
	o.messages = append(o.messages, msg)
	o.mu.Unlock()
}

// Messages returns the sent messages, oldest first.
func (o *Outbox) Messages() []core.EmailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs := make([]core.EmailMessage, len(o.messages))
	copy(msgs, o.messages)
	return msgs
}

// consoleService writes messages to out instead of delivering them. Used in development.
type consoleService struct {
	out         io.Writer
	from        mail.Address
	subjPrefix  string
	logger      core.Logger
	renderer    *core.EmailRenderer
	outbox      *Outbox
	synchronous bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(out io.Writer, logger core.Logger, conf *core.Config) core.EmailService {
	return &consoleService{
		out:        out,
		from:       conf.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		renderer:   core.NewEmailRenderer(conf, logger),
		outbox:     new(Outbox),
	}
}

// NewConsoleServiceMock sends synchronously without output. The returned Outbox holds what was sent.
func NewConsoleServiceMock(logger core.Logger, conf *core.Config) (core.EmailService, *Outbox) {
	outbox := new(Outbox)
	return &consoleService{
		out:         io.Discard,
		from:        conf.DefaultFromEmail,
		subjPrefix:  "[" + conf.AppName + "] ",
		logger:      logger,
		renderer:    core.NewEmailRenderer(conf, logger),
		outbox:      outbox,
		synchronous: true,
	}, outbox
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.synchronous {
			svc.sendMessage(msg)
			continue
		}
		go svc.sendMessage(msg)
	}
}

func (svc *consoleService) sendMessage(msg *core.EmailMessage) {
	if err := svc.renderer.Render(msg); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), errors.Wrap(err, "rendering email"))
		return
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return
	}
	if err := svc.send(*msg); err != nil {
		svc.logger.Error(fmt.Sprintf("writing email: %v", err), err)
		return
	}
	svc.outbox.add(*msg)
}

func (svc *consoleService) send(msg core.EmailMessage) error {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		_, _ = fmt.Fprintf(body, "BCC: %s\r\n", joinAddresses(msg.Bcc))
	}

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
		if err != nil {
			return errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}
	if err = altW.Close(); err != nil {
		return errors.Wrap(err, "closing multipart writer")
	}

	_, err = io.WriteString(svc.out, body.String()+"\n")
	return err
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
