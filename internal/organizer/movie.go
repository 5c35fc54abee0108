package organizer

import (
	"context"
	"path/filepath"

	"github.com/Nomadcxx/jellyrename/internal/jellyfin"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/rename"
)

// renameMovie renames the folder holding a movie. Jellyfin reports the media
// file for ordinary movies and the folder itself for disc structures.
func (o *Organizer) renameMovie(ctx context.Context, p *pass, movie jellyfin.Item) {
	unlock := o.locks.Lock("movie:" + movie.ID)
	defer unlock()

	if !movie.OnDisk() {
		o.skip(p, movie.ID, rename.MovieFolder, movie.Path, rename.ErrNoPath)
		return
	}

	folder := o.movieFolder(movie.Path)
	if o.deferIfPlaying(p, movie.ID, movie.Name, folder) {
		return
	}
	if o.isLibraryRoot(folder) {
		o.skip(p, movie.ID, rename.MovieFolder, movie.Path, ErrLibraryRoot)
		return
	}

	m, err := movie.ToMedia(nil)
	if err != nil {
		o.skip(p, movie.ID, rename.MovieFolder, movie.Path, err)
		return
	}
	label, id := m.PreferredProvider(movieProviders...)
	name := naming.RenderSeriesOrMovieFolder(o.templates.MovieTemplate(), naming.FolderFields{
		Name:          movie.Name,
		Year:          movie.ProductionYear,
		ProviderLabel: label,
		ProviderID:    id,
	})

	res := o.execute(p, rename.Request{Kind: rename.MovieFolder, Item: m, DesiredName: name})
	if res.Outcome == rename.Renamed {
		o.refresh(ctx, movie.ID, movie.Name)
	}
}

func (o *Organizer) movieFolder(path string) string {
	path = filepath.Clean(path)
	if info, err := o.fs.Stat(path); err == nil {
		if info.IsDir() {
			return path
		}
		return filepath.Dir(path)
	}
	if filepath.Ext(path) != "" {
		return filepath.Dir(path)
	}
	return path
}
