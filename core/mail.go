package core

import (
	"bytes"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"
)

// Email templates live under WorkDir/assets/templates/email as
// <name>.txt / <name>.gohtml pairs sharing a _base layout. They are
// parsed once, on the first Render; a message whose template is
// missing simply renders empty and is skipped by the services.
var (
	textTemplates map[string]*texttmpl.Template
	htmlTemplates map[string]*htmltmpl.Template
	tmplInit      sync.Once
)

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) templateContext() ContextData {
	return ContextData{
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) renderText() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	tmpl, ok := textTemplates[m.TemplateName]
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.templateContext()); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML() error {
	tmpl, ok := htmlTemplates[m.TemplateName]
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.templateContext()); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

func (m *EmailMessage) Render() error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates)
	}
	if err := m.renderText(); err != nil {
		return err
	}
	return m.renderHTML()
}

// Attach base64-encodes the reader's content into a new attachment.
// The content type is sniffed when not given.
func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}

	content, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return err
	}
	_ = encoder.Close()

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) AttachFile(path string, contentType ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Attach(f, filepath.Base(path), contentType...)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

func parseTemplates() {
	textTemplates = make(map[string]*texttmpl.Template)
	htmlTemplates = make(map[string]*htmltmpl.Template)

	root := filepath.Join(Conf.WorkDir, "assets", "templates", "email")
	paths, err := filepath.Glob(filepath.Join(root, "*"))
	if err != nil {
		log.Printf("core.parseTemplates: %v", err)
		return
	}

	strict := Conf.Debug || Conf.TestMode
	for _, path := range paths {
		fname := filepath.Base(path)
		ext := filepath.Ext(fname)
		if strings.HasPrefix(fname, "_") {
			continue // layouts
		}
		name := strings.TrimSuffix(fname, ext)

		switch ext {
		case ".txt":
			tmpl, err := texttmpl.ParseFiles(filepath.Join(root, "_base.txt"), path)
			if err != nil {
				log.Printf("core.parseTemplates: %v", err)
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			textTemplates[name] = tmpl
		case ".gohtml":
			tmpl, err := htmltmpl.ParseFiles(filepath.Join(root, "_base.gohtml"), path)
			if err != nil {
				log.Printf("core.parseTemplates: %v", err)
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			htmlTemplates[name] = tmpl
		}
	}
}
