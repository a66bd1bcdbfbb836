package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

func (s *Store) UserByID(_ context.Context, id int64) (core.User, error) {
	defer s.rlock()()
	u, ok := s.st.users[id]
	if !ok {
		return core.User{}, notFound("user", id)
	}
	return u, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (core.User, error) {
	defer s.rlock()()
	for _, u := range s.st.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, notFound("user", username)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	defer s.rlock()()
	out := make([]core.User, 0, len(s.st.users))
	for _, u := range s.st.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b core.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) UsernameExists(_ context.Context, username string, excludeID int64) (bool, error) {
	defer s.rlock()()
	return s.st.userTaken(func(u core.User) bool { return u.Username == username }, excludeID), nil
}

func (s *Store) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	defer s.rlock()()
	return s.st.userTaken(func(u core.User) bool { return strings.EqualFold(u.Email, email) }, excludeID), nil
}

func (st *state) userTaken(match func(core.User) bool, excludeID int64) bool {
	for id, u := range st.users {
		if id != excludeID && match(u) {
			return true
		}
	}
	return false
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	defer s.rlock()()
	return int64(len(s.st.users)), nil
}

func (s *Store) CountUsersByRole(_ context.Context, role core.Role) (int64, error) {
	defer s.rlock()()
	var n int64
	for _, u := range s.st.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *Store) checkUserUnique(u core.User) error {
	if s.st.userTaken(func(o core.User) bool { return o.Username == u.Username }, u.ID) {
		return duplicate("username", u.Username)
	}
	if s.st.userTaken(func(o core.User) bool { return strings.EqualFold(o.Email, u.Email) }, u.ID) {
		return duplicate("email", u.Email)
	}
	return nil
}

func (s *Store) InsertUser(_ context.Context, u core.User) (core.User, error) {
	defer s.lock()()
	u.ID = 0
	if err := s.checkUserUnique(u); err != nil {
		return core.User{}, err
	}
	s.st.nextUserID++
	u.ID = s.st.nextUserID
	s.st.setUser(u)
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	defer s.lock()()
	if _, ok := s.st.users[u.ID]; !ok {
		return core.User{}, notFound("user", u.ID)
	}
	if err := s.checkUserUnique(u); err != nil {
		return core.User{}, err
	}
	s.st.setUser(u)
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.st.users[id]; !ok {
		return notFound("user", id)
	}
	s.st.removeUser(id)
	return nil
}
