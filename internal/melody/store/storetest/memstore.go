// Package storetest provides an in-memory store.Store for tests that
// exercise the layers above the driver. It mirrors the Mongo driver's
// observable behaviour: newest-first listings, ErrNotFound and
// ErrAlreadyExists sentinels, idempotent favourite sets.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
)

type Store struct {
	mu            sync.Mutex
	users         map[string]domain.User
	songs         map[string]domain.Song
	notifications map[string]domain.Notification
}

func New() *Store {
	return &Store{
		users:         make(map[string]domain.User),
		songs:         make(map[string]domain.Song),
		notifications: make(map[string]domain.Notification),
	}
}

func (m *Store) Users() store.Users                 { return (*users)(m) }
func (m *Store) Songs() store.Songs                 { return (*songs)(m) }
func (m *Store) Notifications() store.Notifications { return (*notifications)(m) }
func (m *Store) Ping(context.Context) error         { return nil }
func (m *Store) Close(context.Context) error        { return nil }

type users Store

func (m *users) CreateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return store.ErrAlreadyExists
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *users) GetUserByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *users) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (m *users) UpdateProfilePicture(_ context.Context, userID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.ProfilePicture = key
	m.users[userID] = u
	return nil
}

type songs Store

func (m *songs) CreateSong(_ context.Context, s domain.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.songs[s.ID] = s
	return nil
}

func (m *songs) GetSongByID(_ context.Context, id string) (domain.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[id]
	if !ok {
		return domain.Song{}, store.ErrNotFound
	}
	return s, nil
}

func (m *songs) ListByOwner(_ context.Context, ownerID string, p store.SongListParams) ([]domain.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Song
	for _, s := range m.songs {
		if s.CreatedBy != ownerID {
			continue
		}
		if p.Genre != "" && s.Genre != p.Genre {
			continue
		}
		out = append(out, s)
	}
	sortNewestFirst(out)
	return paginate(out, p.Page, p.PageSize), nil
}

func (m *songs) UpdateSong(_ context.Context, s domain.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.songs[s.ID]
	if !ok {
		return store.ErrNotFound
	}
	s.FavouritedBy = prev.FavouritedBy
	m.songs[s.ID] = s
	return nil
}

func (m *songs) DeleteSong(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.songs[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.songs, id)
	return nil
}

func (m *songs) SetFavourite(_ context.Context, songID, userID string, favourite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.songs[songID]
	if !ok {
		return store.ErrNotFound
	}
	var kept []string
	for _, id := range s.FavouritedBy {
		if id != userID {
			kept = append(kept, id)
		}
	}
	if favourite {
		kept = append(kept, userID)
	}
	s.FavouritedBy = kept
	m.songs[songID] = s
	return nil
}

func (m *songs) ListFavouritedBy(_ context.Context, userID string) ([]domain.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Song
	for _, s := range m.songs {
		if s.FavouritedByUser(userID) {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *songs) Statistics(_ context.Context, ownerID string) (domain.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats domain.Statistics
	genres := map[string]int64{}
	artists := map[string]int64{}
	for _, s := range m.songs {
		if s.CreatedBy != ownerID {
			continue
		}
		stats.TotalSongs++
		genres[string(s.Genre)]++
		artists[s.Artist]++
		if len(s.FavouritedBy) > 0 {
			stats.FavouriteSongs++
		}
	}
	stats.TotalGenres = int64(len(genres))
	stats.TotalArtists = int64(len(artists))
	for k, v := range genres {
		stats.GenreSongCounts = append(stats.GenreSongCounts, domain.KeyCount{Key: k, Count: v})
	}
	return stats, nil
}

type notifications Store

func (m *notifications) CreateNotification(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.ID] = n
	return nil
}

func (m *notifications) ListByRecipient(_ context.Context, to string) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.To == to {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *notifications) MarkRead(_ context.Context, to string, cutoff int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for id, n := range m.notifications {
		if n.To == to && !n.Read && n.Time <= cutoff {
			n.Read = true
			m.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

// sortNewestFirst orders by ID descending; ULIDs sort by creation time.
func sortNewestFirst(list []domain.Song) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
}

func paginate(list []domain.Song, page, size int64) []domain.Song {
	if size < 1 {
		return list
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= int64(len(list)) {
		return nil
	}
	end := start + size
	if end > int64(len(list)) {
		end = int64(len(list))
	}
	return list[start:end]
}
