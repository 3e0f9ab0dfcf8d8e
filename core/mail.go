package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/fs"
)

const emailTemplatesDir = "templates/email"

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailRenderer fills the contents of EmailMessage from the embedded email templates.
	// Templates are parsed on first use.
	EmailRenderer struct {
		conf      *Config
		logger    Logger
		once      sync.Once
		templates tmplCache
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func NewEmailRenderer(conf *Config, logger Logger) *EmailRenderer {
	return &EmailRenderer{conf: conf, logger: logger}
}

func (r *EmailRenderer) contextData(m *EmailMessage) ContextData {
	return ContextData{
		AppName:         r.conf.AppName,
		FrontendBaseURL: r.conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (r *EmailRenderer) template(name, ext string) (interface{}, bool) {
	cache, ok := r.templates[name]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (r *EmailRenderer) renderText(m *EmailMessage) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := r.template(m.TemplateName, ".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, r.contextData(m)); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (r *EmailRenderer) renderHTML(m *EmailMessage) error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := r.template(m.TemplateName, ".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, r.contextData(m)); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render sets the text and html contents of m.
func (r *EmailRenderer) Render(m *EmailMessage) error {
	if m.TemplateName != "" {
		r.once.Do(r.parseTemplates)
	}
	if err := r.renderText(m); err != nil {
		return errors.Wrap(err, "rendering text content")
	}
	return errors.Wrap(r.renderHTML(m), "rendering html content")
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }


func (r *EmailRenderer) parseTemplates() {
	r.templates = make(tmplCache)

	fps, err := fs.Glob(appfs.FS, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		r.logger.Error("listing email templates", errors.Wrap(err, "core.parseTemplates"))
		return
	}

	strict := r.conf.Debug || r.conf.TestMode
	baseTxt := path.Join(emailTemplatesDir, "_base.txt")
	baseHTML := path.Join(emailTemplatesDir, "_base.gohtml")
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := r.templates[name]
		if !ok {
			entry = make(tmplCacheEntry)
			r.templates[name] = entry
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(appfs.FS, baseTxt, fp)
			if err != nil {
				r.logger.Error("parsing email template "+fp, errors.Wrap(err, "core.parseTemplates"))
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFS(appfs.FS, baseHTML, fp)
			if err != nil {
				r.logger.Error("parsing email template "+fp, errors.Wrap(err, "core.parseTemplates"))
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		}
	}
}
