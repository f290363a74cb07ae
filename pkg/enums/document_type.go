package enums

import "fmt"

// DocumentType identifies the logical evidence slot a supporting file
// belongs to. Together with the request id and item id it forms the
// upsert key for evidence attachments.
type DocumentType string

const (
	DocumentTypeIncapacidadMedica DocumentType = "incapacidad_medica"
	DocumentTypeSoporte           DocumentType = "soporte"
	DocumentTypeCertificado       DocumentType = "certificado"
	DocumentTypeFormatoFirmado    DocumentType = "formato_firmado"
	DocumentTypeOtro              DocumentType = "otro"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeIncapacidadMedica,
	DocumentTypeSoporte,
	DocumentTypeCertificado,
	DocumentTypeFormatoFirmado,
	DocumentTypeOtro,
}

// String returns the literal string for the document type.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the document type is known.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw input into a DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
