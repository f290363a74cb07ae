package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/licenciapp/licencias-backend/api/middleware"
	"github.com/licenciapp/licencias-backend/api/responses"
	"github.com/licenciapp/licencias-backend/internal/evidence"
	pkgauth "github.com/licenciapp/licencias-backend/pkg/auth"
	"github.com/licenciapp/licencias-backend/pkg/enums"
	pkgerrors "github.com/licenciapp/licencias-backend/pkg/errors"
	"github.com/licenciapp/licencias-backend/pkg/logger"
)

// multipartMemoryLimit bounds how much of the upload stays in memory;
// the rest spills to temp files.
const multipartMemoryLimit = 8 << 20

type evidenceSlot struct {
	actor     pkgauth.Actor
	requestID uuid.UUID
	docType   enums.DocumentType
	itemID    int
}

func parseEvidenceSlot(r *http.Request) (evidenceSlot, error) {
	actor := middleware.ActorFromContext(r.Context())
	if actor.IsZero() {
		return evidenceSlot{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
	if err != nil {
		return evidenceSlot{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id")
	}

	docType, err := enums.ParseDocumentType(chi.URLParam(r, "documentType"))
	if err != nil {
		return evidenceSlot{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid document type")
	}

	itemID, err := strconv.Atoi(chi.URLParam(r, "itemId"))
	if err != nil || itemID < 1 {
		return evidenceSlot{}, pkgerrors.New(pkgerrors.CodeValidation, "item id must be a positive integer")
	}

	return evidenceSlot{actor: actor, requestID: requestID, docType: docType, itemID: itemID}, nil
}

// EvidencePut accepts a multipart upload for one evidence slot. The file
// part must be named "file".
func EvidencePut(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evidence service unavailable"))
			return
		}

		slot, err := parseEvidenceSlot(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file part is required"))
			return
		}
		defer file.Close()

		saved, err := svc.Put(r.Context(), slot.actor, slot.requestID, slot.docType, slot.itemID, evidence.PutInput{
			FileName:  header.Filename,
			MimeType:  header.Header.Get("Content-Type"),
			SizeBytes: header.Size,
			Content:   file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, saved)
	}
}

// EvidenceExists reports the slot's occupant without touching the store.
func EvidenceExists(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evidence service unavailable"))
			return
		}

		slot, err := parseEvidenceSlot(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, found, err := svc.Exists(r.Context(), slot.actor, slot.requestID, slot.docType, slot.itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"exists":     found,
			"attachment": row,
		})
	}
}

func EvidenceDelete(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evidence service unavailable"))
			return
		}

		slot, err := parseEvidenceSlot(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), slot.actor, slot.requestID, slot.docType, slot.itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func EvidenceList(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evidence service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "requestId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}

		items, err := svc.ListForRequest(r.Context(), actor, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
