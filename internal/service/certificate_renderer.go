package service

import (
	"bytes"
	"context"
	"html/template"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"time"
)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Certificate of Completion - {{.CourseTitle}}</title></head>
<body style="font-family: Georgia, serif; text-align: center; padding: 4em;">
<h1>Certificate of Completion</h1>
<p>This certifies that</p>
<h2>{{.UserName}}</h2>
<p>has successfully completed the course</p>
<h2>{{.CourseTitle}}</h2>
<p>Issued on {{.IssuedOn}}</p>
<p style="font-size: small; color: #666;">Certificate ID: {{.ID}}</p>
</body>
</html>
`))

type certificateView struct {
	ID          string
	UserName    string
	CourseTitle string
	IssuedOn    string
}

// HTMLCertificateRenderer 渲染 HTML 证书并上传到对象存储
type HTMLCertificateRenderer struct {
	Storage *StorageService
}

func NewHTMLCertificateRenderer(storage *StorageService) *HTMLCertificateRenderer {
	return &HTMLCertificateRenderer{Storage: storage}
}

func renderCertificateHTML(cert *model.Certificate) ([]byte, error) {
	issuedOn := cert.IssueDate
	if t, err := cert.IssuedAt(); err == nil {
		issuedOn = t.Format("January 2, 2006")
	}

	var buf bytes.Buffer
	err := certificateTemplate.Execute(&buf, certificateView{
		ID:          cert.ID,
		UserName:    cert.UserName,
		CourseTitle: cert.CourseTitle,
		IssuedOn:    issuedOn,
	})
	return buf.Bytes(), err
}

func (r *HTMLCertificateRenderer) Render(ctx context.Context, cert *model.Certificate) (string, error) {
	body, err := renderCertificateHTML(cert)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filename := "certificates/" + cert.ID + ".html"
	return r.Storage.Upload(ctx, filename, bytes.NewReader(body), int64(len(body)), util.MimeHTML)
}
