package storage

import (
	"github.com/bwise1/huddle_karma/config"
	"github.com/cloudinary/cloudinary-go/v2"
	log "github.com/sirupsen/logrus"
)

// Cloudinary resolves stored avatar public ids into delivery URLs. A nil
// client or an unconfigured account resolves every id to "".
type Cloudinary struct {
	CLD *cloudinary.Cloudinary
}

func NewCloudinary(cfg *config.Config) *Cloudinary {
	if cfg.CloudinaryCloudName == "" {
		log.Info("[Cloudinary]: cloud name not set, avatar urls disabled")
		return &Cloudinary{}
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		log.WithError(err).Error("[Cloudinary]: failed to initialise, avatar urls disabled")
		return &Cloudinary{}
	}
	cld.Config.URL.Secure = true

	return &Cloudinary{CLD: cld}
}

// AvatarURL returns the delivery URL for publicID.
func (c *Cloudinary) AvatarURL(publicID string) string {
	if c == nil || c.CLD == nil || publicID == "" {
		return ""
	}

	img, err := c.CLD.Image(publicID)
	if err != nil {
		log.WithError(err).WithField("public_id", publicID).Warn("[Cloudinary]: unable to build image asset")
		return ""
	}

	url, err := img.String()
	if err != nil {
		log.WithError(err).WithField("public_id", publicID).Warn("[Cloudinary]: unable to build avatar url")
		return ""
	}
	return url
}
