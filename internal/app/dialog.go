package app

import (
	"errors"
	"path/filepath"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/terraedit/internal/terrain"
)

type pickKind int

const (
	pickOpen pickKind = iota
	pickSave
)

type filePick struct {
	kind pickKind
	path string
}

// pickFile shows a snapshot file dialog. The result is applied by
// handlePicked on the frame loop, which owns the GL context.
func (a *App) pickFile(kind pickKind) {
	start := filepath.Dir(a.cfg.Terrain.Snapshot)
	go func() {
		b := dialog.File().
			Filter("Heightfield snapshots", "tehf").
			Filter("All Files", "*").
			SetStartDir(start)
		var (
			path string
			err  error
		)
		if kind == pickSave {
			path, err = b.Title("Save snapshot as").Save()
		} else {
			path, err = b.Title("Open snapshot").Load()
		}
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				a.log.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case a.picked <- filePick{kind: kind, path: path}:
		default:
			a.log.Warn("file dialog result dropped", zap.String("path", path))
		}
	}()
}

func (a *App) handlePicked() {
	var p filePick
	select {
	case p = <-a.picked:
	default:
		return
	}

	switch p.kind {
	case pickSave:
		prev := a.cfg.Terrain.Snapshot
		a.cfg.Terrain.Snapshot = p.path
		if err := a.save(); err != nil {
			a.cfg.Terrain.Snapshot = prev
			a.log.Error("save failed", zap.Error(err))
		}
	case pickOpen:
		h, err := terrain.LoadSnapshot(p.path)
		if err != nil {
			a.log.Error("open failed", zap.String("path", p.path), zap.Error(err))
			return
		}
		if err := a.attach(h); err != nil {
			a.log.Error("open failed", zap.String("path", p.path), zap.Error(err))
			return
		}
		a.cfg.Terrain.Snapshot = p.path
		a.log.Info("snapshot opened", zap.String("path", p.path),
			zap.Int("width", h.Width()), zap.Int("height", h.Height()))
	}
}
