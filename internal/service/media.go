package service

import (
	"mediakit/config"
	"mediakit/disk"
	"mediakit/media"
	"mediakit/model"
	"mediakit/record"

	"gorm.io/gorm"
)

// Factory builds attachment managers with the application's resolved media
// configuration. One factory serves the whole process; managers themselves
// are per save cycle.
type Factory struct {
	cfg media.Config
	dsk disk.Disk
}

// NewFactory resolves the attachment configuration once, layering the
// asset styles over the application-wide media defaults.
func NewFactory(dsk disk.Disk) (*Factory, error) {
	cfg, err := media.ResolveConfig(
		media.Layer(config.MediaDefaults()),
		media.Layer{"styles": model.ImageStyles()},
	)
	if err != nil {
		return nil, err
	}

	return &Factory{cfg: cfg, dsk: dsk}, nil
}

// Config exposes the resolved attachment configuration.
func (f *Factory) Config() media.Config {
	return f.cfg
}

// Image builds the "image" attachment manager bound to the given asset.
func (f *Factory) Image(dbh *gorm.DB, a *model.Asset) (*media.Manager, error) {
	m, err := media.New("image", f.cfg, f.dsk)
	if err != nil {
		return nil, err
	}

	return m.SetRecord(record.NewGormRecord(dbh, a)), nil
}
