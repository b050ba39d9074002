// Package filesec is the file security pipeline for response documents.
// Response PDFs are re-encrypted with a throwaway owner password and
// restricted permissions before they reach the object store. Anything that
// is not a PDF, or fails to transform, passes through unchanged: the
// pipeline must never block an upload.
package filesec

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"

	"reqtrack/backend/internal/config"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const pdfMimeType = "application/pdf"

// Result is the outcome of a security transform.
type Result struct {
	Data []byte
	// Secured is true only when the PDF was successfully re-encrypted.
	Secured bool
	// Warning is set when the transform failed and the original bytes
	// were passed through instead.
	Warning string
}

// Securer is the pipeline contract used by the lifecycle engine.
type Securer interface {
	Secure(data []byte, mimeType string) Result
}

// Pipeline implements Securer with pdfcpu.
type Pipeline struct{}

func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Secure restricts a response PDF: printing (including high resolution) and
// accessibility extraction stay allowed; modification, copying, annotation,
// form filling and document assembly are denied. The owner password is
// random and never persisted or surfaced. Non-PDF input is returned as-is.
func (p *Pipeline) Secure(data []byte, mimeType string) Result {
	if mimeType != pdfMimeType {
		return Result{Data: data, Secured: false}
	}

	ownerPassword, err := randomPassword()
	if err != nil {
		log.Printf("WARNING: Failed to generate owner password: %v", err)
		return Result{Data: data, Secured: false, Warning: "file stored unsecured: password generation failed"}
	}

	conf := model.NewAESConfiguration("", ownerPassword, config.SecuredPDFKeyBits)
	conf.Permissions = model.PermissionsNone |
		model.PermissionPrintRev2 | model.PermissionPrintRev3 |
		model.PermissionExtractRev3

	var secured bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(data), &secured, conf); err != nil {
		log.Printf("WARNING: PDF security transform failed: %v", err)
		return Result{
			Data:    data,
			Secured: false,
			Warning: fmt.Sprintf("file stored unsecured: %v", err),
		}
	}

	return Result{Data: secured.Bytes(), Secured: true}
}

// randomPassword returns a 32-hex-char throwaway secret.
func randomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
