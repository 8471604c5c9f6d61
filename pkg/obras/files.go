package obras

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/blob"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/session"
)

// Upload limits.
const (
	MaxPhotoBytes      = 10 << 20
	MaxAttachmentBytes = 20 << 20
)

func checkPhoto(u Upload) error {
	if len(u.Data) == 0 {
		return domain.NewValidationError("Arquivo vazio.")
	}
	if len(u.Data) > MaxPhotoBytes {
		return domain.NewValidationError("A foto excede o tamanho máximo de 10 MB.")
	}
	if !strings.HasPrefix(u.ContentType, "image/") {
		return domain.NewValidationError("Apenas imagens podem ser enviadas como foto.")
	}
	return nil
}

func checkAttachment(u Upload) error {
	if len(u.Data) == 0 {
		return domain.NewValidationError("Arquivo vazio.")
	}
	if len(u.Data) > MaxAttachmentBytes {
		return domain.NewValidationError("O anexo excede o tamanho máximo de 20 MB.")
	}
	return nil
}

// UpdatePhotos applies one photo edit: removes references by RefPath and
// uploads new files. Uploads happen only here, inside the save; if the
// document write fails the new uploads are deleted again. Removed files are
// deleted from the blob store only after the save succeeded.
func (s *Service) UpdatePhotos(ctx context.Context, sess session.Session, obraID string, add []Upload, remove []string) (*models.Obra, error) {
	for _, u := range add {
		if err := checkPhoto(u); err != nil {
			return nil, err
		}
	}

	current, err := s.obras.Get(ctx, sess.UserID, obraID)
	if err != nil {
		return nil, err
	}

	staged := blob.NewStaged(current.Photos)
	for _, handle := range remove {
		if !staged.Remove(handle) {
			return nil, domain.NewNotFoundError("foto")
		}
	}
	for _, u := range add {
		staged.Add(u.Filename, u.ContentType, u.Data)
	}

	refs, err := staged.Resolve(ctx, s.blobs, func(filename string) string {
		return blob.ObjectPath(sess.UserID, obraID, blob.KindPhoto, filename)
	})
	if err != nil {
		s.log.Error("photo upload failed", "user_id", sess.UserID, "obra_id", obraID, "error", err)
		return nil, domain.NewUnavailableError(err)
	}

	next := current.Clone()
	next.Photos = refs
	next.Touch(s.now())
	if err := s.obras.Set(ctx, sess.UserID, obraID, next); err != nil {
		staged.Rollback(ctx, s.blobs)
		return nil, err
	}

	for range add {
		s.metrics.RecordUpload(string(blob.KindPhoto))
	}
	if err := staged.Purge(ctx, s.blobs); err != nil {
		s.log.Warn("removed photo left in blob store", "user_id", sess.UserID, "obra_id", obraID, "error", err)
	}
	return &next, nil
}

// AddProposal records a proposal. Every product must belong to the
// partner's catalogue. attachment is optional.
func (s *Service) AddProposal(ctx context.Context, sess session.Session, obraID string, req ProposalRequest, attachment *Upload) (*models.Obra, error) {
	partner, err := models.ParsePartner(req.Partner)
	if err != nil {
		return nil, domain.NewValidationError("Representada inválida.")
	}
	if len(req.Products) == 0 {
		return nil, domain.NewValidationError("Selecione pelo menos um produto.")
	}
	for _, product := range req.Products {
		if !partner.Sells(product) {
			return nil, domain.NewValidationError("Produto \"" + product + "\" não pertence à representada " + string(partner) + ".")
		}
	}
	if req.Value.IsNegative() {
		return nil, domain.NewValidationError("O valor da proposta não pode ser negativo.")
	}
	if attachment != nil {
		if err := checkAttachment(*attachment); err != nil {
			return nil, err
		}
	}

	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	prop := models.Proposta{
		ID:       uuid.NewString(),
		Partner:  partner,
		Products: append([]string(nil), req.Products...),
		Value:    req.Value,
		Date:     date.UTC(),
	}

	staged := blob.NewStaged(nil)
	if attachment != nil {
		if _, err := s.obras.Get(ctx, sess.UserID, obraID); err != nil {
			return nil, err
		}
		staged.Add(attachment.Filename, attachment.ContentType, attachment.Data)
		refs, err := staged.Resolve(ctx, s.blobs, func(filename string) string {
			return blob.ObjectPath(sess.UserID, obraID, blob.KindProposal, filename)
		})
		if err != nil {
			return nil, domain.NewUnavailableError(err)
		}
		prop.Attachment = &refs[0]
	}

	obra, err := s.mutate(ctx, sess, obraID, func(o *models.Obra) error {
		o.Proposals = append(o.Proposals, prop)
		return nil
	})
	if err != nil {
		staged.Rollback(ctx, s.blobs)
		return nil, err
	}
	if attachment != nil {
		s.metrics.RecordUpload(string(blob.KindProposal))
	}
	return obra, nil
}

// RemoveProposal deletes a proposal and then its attachment.
func (s *Service) RemoveProposal(ctx context.Context, sess session.Session, obraID, proposalID string) (*models.Obra, error) {
	var removed *models.Foto
	obra, err := s.mutate(ctx, sess, obraID, func(o *models.Obra) error {
		for i, p := range o.Proposals {
			if p.ID == proposalID {
				removed = p.Attachment
				o.Proposals = append(o.Proposals[:i], o.Proposals[i+1:]...)
				return nil
			}
		}
		return domain.NewNotFoundError("proposta")
	})
	if err != nil {
		return nil, err
	}
	if removed != nil {
		if err := s.blobs.Delete(ctx, *removed); err != nil {
			s.log.Warn("proposal attachment left in blob store", "user_id", sess.UserID, "ref", removed.RefPath, "error", err)
		}
	}
	return obra, nil
}

// DownloadURL resolves a stored reference of the user into a URL.
func (s *Service) DownloadURL(ctx context.Context, sess session.Session, ref models.Foto) (string, error) {
	if !blob.OwnedBy(ref, sess.UserID) {
		return "", domain.NewForbiddenError("Arquivo de outro usuário.")
	}
	url, err := s.blobs.DownloadURL(ctx, ref)
	if err != nil {
		return "", domain.NewUnavailableError(err)
	}
	return url, nil
}
