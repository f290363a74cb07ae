package evidence

import (
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/licenciapp/licencias-backend/pkg/enums"
)

type mimeGroup string

const (
	mimeGroupImages mimeGroup = "images"
	mimeGroupPDFs   mimeGroup = "pdfs"
)

var mimeGroupNames = map[mimeGroup]string{
	mimeGroupImages: "images",
	mimeGroupPDFs:   "PDFs",
}

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages: {"image/png", "image/jpeg", "image/webp"},
	mimeGroupPDFs:   {"application/pdf"},
}

// Signed forms and certificates must arrive as PDFs; scans and photos are
// accepted for the rest.
var allowedMimeGroupsByDocumentType = map[enums.DocumentType][]mimeGroup{
	enums.DocumentTypeIncapacidadMedica: {mimeGroupPDFs, mimeGroupImages},
	enums.DocumentTypeSoporte:           {mimeGroupPDFs, mimeGroupImages},
	enums.DocumentTypeCertificado:       {mimeGroupPDFs},
	enums.DocumentTypeFormatoFirmado:    {mimeGroupPDFs},
	enums.DocumentTypeOtro:              {mimeGroupPDFs, mimeGroupImages},
}

var (
	mimeTypesByDocumentType        = buildMimeTypesByDocumentType()
	mimeDescriptionsByDocumentType = buildMimeDescriptions()
)

func buildMimeTypesByDocumentType() map[enums.DocumentType][]string {
	result := make(map[enums.DocumentType][]string, len(allowedMimeGroupsByDocumentType))
	for docType, groups := range allowedMimeGroupsByDocumentType {
		set := make(map[string]struct{})
		for _, group := range groups {
			for _, value := range mimeGroupTypes[group] {
				set[value] = struct{}{}
			}
		}
		list := make([]string, 0, len(set))
		for value := range set {
			list = append(list, value)
		}
		sort.Strings(list)
		result[docType] = list
	}
	return result
}

func buildMimeDescriptions() map[enums.DocumentType]string {
	result := make(map[enums.DocumentType]string, len(allowedMimeGroupsByDocumentType))
	for docType, groups := range allowedMimeGroupsByDocumentType {
		var descriptions []string
		for _, group := range groups {
			if name, ok := mimeGroupNames[group]; ok {
				descriptions = append(descriptions, name)
			}
		}
		result[docType] = humanReadableList(descriptions)
	}
	return result
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return fmt.Sprintf("%s or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	if mediaType == "" {
		return "", fmt.Errorf("mime type missing")
	}
	return strings.ToLower(mediaType), nil
}

func mimeAllowed(docType enums.DocumentType, mimeType string) bool {
	for _, candidate := range mimeTypesByDocumentType[docType] {
		if candidate == mimeType {
			return true
		}
	}
	return false
}

func allowedMimeDescription(docType enums.DocumentType) string {
	if msg, ok := mimeDescriptionsByDocumentType[docType]; ok && msg != "" {
		return msg
	}
	return "the approved mime types"
}

var unsafeFileNameRe = regexp.MustCompile(`[^a-z0-9._-]+`)

// sanitizeFileName strips any path components and reduces the base name to
// a predictable character set so it can appear in an object key.
func sanitizeFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.ToLower(base)
	base = unsafeFileNameRe.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._-")
	if base == "" {
		return "archivo"
	}
	return base
}
