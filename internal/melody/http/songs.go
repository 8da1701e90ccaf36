package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/blob"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/service"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/httpx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

// maxSongBytes caps a whole song submission (audio plus banner).
const maxSongBytes = 50 << 20

type SongsHandler struct {
	SongService *service.SongService
}

// HandleList returns the caller's songs, newest first.
//
//	@Summary		List own songs
//	@Description	Returns the caller's songs, newest first. Supports page/size pagination and a genre filter.
//	@Tags			Songs
//	@Security		SessionAuth
//	@Produce		json
//	@Param			page	query		int		false	"1-based page"
//	@Param			size	query		int		false	"Page size"
//	@Param			genre	query		string	false	"Genre filter"
//	@Success		200		{object}	SongsResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Unknown genre"
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Router			/v1/songs [get].
func (h *SongsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	params := store.SongListParams{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "size"),
	}
	if raw := r.URL.Query().Get("genre"); raw != "" {
		g, err := domain.ParseGenre(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "unknown genre")
			return
		}
		params.Genre = g
	}

	songs, err := h.SongService.List(ctx, userID, params)
	if err != nil {
		slogx.FromContext(ctx).Error("song listing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := SongsResponse{Songs: songs}
	if resp.Songs == nil {
		resp.Songs = []domain.Song{}
	}
	resp.applyRenewal(ctx)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreate adds a song from a multipart submission.
//
//	@Summary		Upload a song
//	@Description	Multipart form: title, artist, album, genre, private fields plus an "audio" file and an optional "banner" image.
//	@Tags			Songs
//	@Security		SessionAuth
//	@Accept			mpfd
//	@Produce		json
//	@Success		201	{object}	SongResponse
//	@Failure		400	{object}	httpx.ErrorResponse	"Missing or invalid fields"
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Router			/v1/songs [post].
func (h *SongsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxSongBytes)
	if err := r.ParseMultipartForm(maxSongBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	in := service.CreateSongInput{
		Title:   r.FormValue("title"),
		Artist:  r.FormValue("artist"),
		Album:   r.FormValue("album"),
		Genre:   domain.Genre(r.FormValue("genre")),
		Private: r.FormValue("private") == "true",
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	if up, c, err := formUpload(r, "audio"); err == nil {
		in.Audio = up
		closers = append(closers, c)
	}
	if up, c, err := formUpload(r, "banner"); err == nil {
		in.Banner = up
		closers = append(closers, c)
	}

	song, err := h.SongService.Create(ctx, userID, in)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSong) {
			httpx.WriteError(w, http.StatusBadRequest, "missing or invalid song fields")
			return
		}
		slogx.FromContext(ctx).Error("song create failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := SongResponse{Song: song}
	resp.applyRenewal(ctx)
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// HandleUpdate patches the caller's own song.
//
//	@Summary		Update a song
//	@Description	Accepts either a JSON patch of the metadata fields or a multipart form that may also replace the audio/banner payloads. Absent fields are left alone.
//	@Tags			Songs
//	@Security		SessionAuth
//	@Produce		json
//	@Param			id	path		string	true	"Song ID"
//	@Success		200	{object}	SongResponse
//	@Failure		400	{object}	httpx.ErrorResponse
//	@Failure		403	{object}	httpx.ErrorResponse	"Not the owner"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Router			/v1/songs/{id} [patch].
func (h *SongsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)
	songID := r.PathValue("id")

	in, closers, err := updateInput(w, r)
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	song, err := h.SongService.Update(ctx, userID, songID, in)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "song not found")
		case errors.Is(err, service.ErrForbidden):
			httpx.WriteError(w, http.StatusForbidden, "not your song")
		case errors.Is(err, service.ErrInvalidSong):
			httpx.WriteError(w, http.StatusBadRequest, "invalid song fields")
		default:
			slogx.FromContext(ctx).Error("song update failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := SongResponse{Song: song}
	resp.applyRenewal(ctx)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleDelete removes the caller's own song.
//
//	@Summary		Delete a song
//	@Tags			Songs
//	@Security		SessionAuth
//	@Produce		json
//	@Param			id	path	string	true	"Song ID"
//	@Success		204
//	@Failure		403	{object}	httpx.ErrorResponse	"Not the owner"
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Router			/v1/songs/{id} [delete].
func (h *SongsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)
	songID := r.PathValue("id")

	if err := h.SongService.Delete(ctx, userID, songID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "song not found")
		case errors.Is(err, service.ErrForbidden):
			httpx.WriteError(w, http.StatusForbidden, "not your song")
		default:
			slogx.FromContext(ctx).Error("song delete failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleFavourite toggles the caller's favourite mark on a song.
//
//	@Summary		Toggle favourite
//	@Description	Flips the caller's favourite mark on the song and reports the new state. Favouriting notifies the song's owner.
//	@Tags			Songs
//	@Security		SessionAuth
//	@Produce		json
//	@Param			id	path		string	true	"Song ID"
//	@Success		200	{object}	FavouriteResponse
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Router			/v1/songs/{id}/favourite [patch].
func (h *SongsHandler) HandleFavourite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)
	songID := r.PathValue("id")

	favourite, err := h.SongService.ToggleFavourite(ctx, userID, songID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "song not found")
			return
		}
		slogx.FromContext(ctx).Error("favourite toggle failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := FavouriteResponse{Favourite: favourite}
	resp.applyRenewal(ctx)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleFavourites lists every song the caller has favourited.
//
//	@Summary		List favourites
//	@Tags			Songs
//	@Security		SessionAuth
//	@Produce		json
//	@Success		200	{object}	SongsResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Router			/v1/songs/favourites [get].
func (h *SongsHandler) HandleFavourites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	songs, err := h.SongService.Favourites(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Error("favourites listing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := SongsResponse{Songs: songs}
	if resp.Songs == nil {
		resp.Songs = []domain.Song{}
	}
	resp.applyRenewal(ctx)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleStatistics aggregates the caller's library.
//
//	@Summary		Library statistics
//	@Description	Totals and per-genre/artist/album breakdowns of the caller's songs.
//	@Tags			Songs
//	@Security		SessionAuth
//	@Produce		json
//	@Success		200	{object}	StatisticsResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Router			/v1/songs/statistics [get].
func (h *SongsHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	stats, err := h.SongService.Statistics(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Error("statistics failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := StatisticsResponse{Statistics: stats}
	resp.applyRenewal(ctx)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleMedia streams a stored payload (audio or banner) by key. Keys
// are unguessable, so the route is public and can feed plain <audio>
// and <img> tags that cannot attach credentials.
//
//	@Summary		Stream song media
//	@Tags			Songs
//	@Produce		octet-stream
//	@Param			key	path		string	true	"Object key, e.g. audio/9b2d….mp3"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Router			/v1/songs/data/{key} [get].
func (h *SongsHandler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PathValue("key")

	rc, contentType, err := h.SongService.OpenMedia(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "media not found")
			return
		}
		slogx.FromContext(ctx).Error("media open failed", "err", err, "key", key)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	_, _ = io.Copy(w, rc)
}

// updateInput builds an UpdateSongInput from either a JSON patch or a
// multipart form. Only fields present in the request are set.
func updateInput(w http.ResponseWriter, r *http.Request) (service.UpdateSongInput, []io.Closer, error) {
	var in service.UpdateSongInput

	if !isMultipart(r.Header.Get("Content-Type")) {
		var patch struct {
			Title   *string       `json:"title"`
			Artist  *string       `json:"artist"`
			Album   *string       `json:"album"`
			Genre   *domain.Genre `json:"genre"`
			Private *bool         `json:"private"`
		}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			return in, nil, err
		}
		in.Title = patch.Title
		in.Artist = patch.Artist
		in.Album = patch.Album
		in.Genre = patch.Genre
		in.Private = patch.Private
		return in, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSongBytes)
	if err := r.ParseMultipartForm(maxSongBytes); err != nil {
		return in, nil, err
	}

	field := func(name string) *string {
		if vs, ok := r.MultipartForm.Value[name]; ok && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}
	in.Title = field("title")
	in.Artist = field("artist")
	in.Album = field("album")
	if v := field("genre"); v != nil {
		g := domain.Genre(*v)
		in.Genre = &g
	}
	if v := field("private"); v != nil {
		b := *v == "true"
		in.Private = &b
	}

	var closers []io.Closer
	if up, c, err := formUpload(r, "audio"); err == nil {
		in.Audio = up
		closers = append(closers, c)
	}
	if up, c, err := formUpload(r, "banner"); err == nil {
		in.Banner = up
		closers = append(closers, c)
	}
	return in, closers, nil
}

// formUpload pulls one file part out of a parsed multipart form.
func formUpload(r *http.Request, name string) (*service.Upload, io.Closer, error) {
	file, header, err := r.FormFile(name)
	if err != nil {
		return nil, nil, err
	}
	return &service.Upload{
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}, file, nil
}

func isMultipart(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "multipart/form-data"
}

func queryInt(r *http.Request, name string) int64 {
	n, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return n
}
