package pgstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-realm-auth/access"
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/clients"
	"github.com/jrsteele09/go-realm-auth/realms"
	"github.com/jrsteele09/go-realm-auth/resources"
	"github.com/jrsteele09/go-realm-auth/sessions"
	"github.com/jrsteele09/go-realm-auth/token/refresh"
	"github.com/jrsteele09/go-realm-auth/users"
)

type scanner interface {
	Scan(dest ...any) error
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Realm store ----------------------------------------------------------------
type realmRepo struct{ q querier }

const realmColumns = `id, name, slug, max_concurrent_sessions, session_lifetime, refresh_token_lifetime,
	refresh_token_reuse_limit, locked_at, created_at, updated_at`

func scanRealm(row scanner) (*realms.Realm, error) {
	var (
		r                 realms.Realm
		maxSessions       sql.NullInt64
		session, refreshL int64
		lockedAt          sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Slug, &maxSessions, &session, &refreshL,
		&r.RefreshTokenReuseLimit, &lockedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if maxSessions.Valid {
		v := int(maxSessions.Int64)
		r.MaxConcurrentSessions = &v
	}
	r.SessionLifetime = duration(session)
	r.RefreshTokenLifetime = duration(refreshL)
	r.LockedAt = timePtr(lockedAt)
	return &r, nil
}

func (s realmRepo) Insert(ctx context.Context, r *realms.Realm) error {
	_, err := s.q.ExecContext(ctx,
		`insert into realms(id, name, slug, max_concurrent_sessions, session_lifetime, refresh_token_lifetime,
			refresh_token_reuse_limit, locked_at, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.Name, r.Slug, r.MaxConcurrentSessions, seconds(r.SessionLifetime), seconds(r.RefreshTokenLifetime),
		r.RefreshTokenReuseLimit, r.LockedAt, r.CreatedAt, r.UpdatedAt)
	return mapErr("insert realm", err)
}

func (s realmRepo) Update(ctx context.Context, r *realms.Realm) error {
	res, err := s.q.ExecContext(ctx,
		`update realms set name=$2, slug=$3, max_concurrent_sessions=$4, session_lifetime=$5,
			refresh_token_lifetime=$6, refresh_token_reuse_limit=$7, locked_at=$8, updated_at=$9
		where id=$1`,
		r.ID, r.Name, r.Slug, r.MaxConcurrentSessions, seconds(r.SessionLifetime), seconds(r.RefreshTokenLifetime),
		r.RefreshTokenReuseLimit, r.LockedAt, r.UpdatedAt)
	if err != nil {
		return mapErr("update realm", err)
	}
	return affected("update realm", res)
}

func (s realmRepo) Get(ctx context.Context, id uuid.UUID) (*realms.Realm, error) {
	r, err := scanRealm(s.q.QueryRowContext(ctx, `select `+realmColumns+` from realms where id=$1`, id))
	return r, mapErr("realm", err)
}

func (s realmRepo) GetByName(ctx context.Context, name string) (*realms.Realm, error) {
	r, err := scanRealm(s.q.QueryRowContext(ctx, `select `+realmColumns+` from realms where name=$1`, name))
	return r, mapErr("realm", err)
}

func (s realmRepo) GetBySlug(ctx context.Context, slug string) (*realms.Realm, error) {
	r, err := scanRealm(s.q.QueryRowContext(ctx, `select `+realmColumns+` from realms where slug=$1`, slug))
	return r, mapErr("realm", err)
}

func (s realmRepo) List(ctx context.Context, offset, limit int) ([]*realms.Realm, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.QueryContext(ctx,
		`select `+realmColumns+` from realms order by name asc offset $1 limit $2`, offset, limit)
	if err != nil {
		return nil, mapErr("list realms", err)
	}
	defer rows.Close()

	var res []*realms.Realm
	for rows.Next() {
		r, err := scanRealm(rows)
		if err != nil {
			return nil, mapErr("list realms", err)
		}
		res = append(res, r)
	}
	return res, mapErr("list realms", rows.Err())
}

func (s realmRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `delete from realms where id=$1`, id)
	if err != nil {
		return mapErr("delete realm", err)
	}
	return affected("delete realm", res)
}

// Client store ---------------------------------------------------------------
type clientRepo struct{ q querier }

const clientColumns = `id, realm_id, name, max_concurrent_sessions, session_lifetime, refresh_token_lifetime,
	refresh_token_reuse_limit, locked_at, created_at, updated_at`

func scanClient(row scanner) (*clients.Client, error) {
	var (
		c                 clients.Client
		session, refreshL int64
		lockedAt          sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.RealmID, &c.Name, &c.MaxConcurrentSessions, &session, &refreshL,
		&c.RefreshTokenReuseLimit, &lockedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.SessionLifetime = duration(session)
	c.RefreshTokenLifetime = duration(refreshL)
	c.LockedAt = timePtr(lockedAt)
	return &c, nil
}

func (s clientRepo) Insert(ctx context.Context, c *clients.Client) error {
	_, err := s.q.ExecContext(ctx,
		`insert into clients(id, realm_id, name, max_concurrent_sessions, session_lifetime, refresh_token_lifetime,
			refresh_token_reuse_limit, locked_at, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.RealmID, c.Name, c.MaxConcurrentSessions, seconds(c.SessionLifetime), seconds(c.RefreshTokenLifetime),
		c.RefreshTokenReuseLimit, c.LockedAt, c.CreatedAt, c.UpdatedAt)
	return mapErr("insert client", err)
}

func (s clientRepo) Update(ctx context.Context, c *clients.Client) error {
	res, err := s.q.ExecContext(ctx,
		`update clients set name=$2, max_concurrent_sessions=$3, session_lifetime=$4, refresh_token_lifetime=$5,
			refresh_token_reuse_limit=$6, locked_at=$7, updated_at=$8
		where id=$1`,
		c.ID, c.Name, c.MaxConcurrentSessions, seconds(c.SessionLifetime), seconds(c.RefreshTokenLifetime),
		c.RefreshTokenReuseLimit, c.LockedAt, c.UpdatedAt)
	if err != nil {
		return mapErr("update client", err)
	}
	return affected("update client", res)
}

func (s clientRepo) Get(ctx context.Context, id uuid.UUID) (*clients.Client, error) {
	c, err := scanClient(s.q.QueryRowContext(ctx, `select `+clientColumns+` from clients where id=$1`, id))
	return c, mapErr("client", err)
}

func (s clientRepo) ListByRealm(ctx context.Context, realmID uuid.UUID) ([]*clients.Client, error) {
	rows, err := s.q.QueryContext(ctx,
		`select `+clientColumns+` from clients where realm_id=$1 order by name asc`, realmID)
	if err != nil {
		return nil, mapErr("list clients", err)
	}
	defer rows.Close()

	var res []*clients.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, mapErr("list clients", err)
		}
		res = append(res, c)
	}
	return res, mapErr("list clients", rows.Err())
}

func (s clientRepo) SumMaxConcurrentSessions(ctx context.Context, realmID, excludeID uuid.UUID) (int, error) {
	var total int
	err := s.q.QueryRowContext(ctx,
		`select coalesce(sum(max_concurrent_sessions), 0) from clients where realm_id=$1 and id<>$2`,
		realmID, excludeID).Scan(&total)
	return total, mapErr("sum client sessions", err)
}

func (s clientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `delete from clients where id=$1`, id)
	if err != nil {
		return mapErr("delete client", err)
	}
	return affected("delete client", res)
}

// User store -----------------------------------------------------------------
type userRepo struct{ q querier }

const userColumns = `id, realm_id, email, phone, password_hash, first_name, last_name, locked_at, created_at, updated_at`

func scanUser(row scanner) (*users.User, error) {
	var (
		u               users.User
		phone, lastName sql.NullString
		lockedAt        sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.RealmID, &u.Email, &phone, &u.PasswordHash, &u.FirstName, &lastName,
		&lockedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Phone = stringPtr(phone)
	u.LastName = stringPtr(lastName)
	u.LockedAt = timePtr(lockedAt)
	return &u, nil
}

func (s userRepo) Insert(ctx context.Context, u *users.User) error {
	_, err := s.q.ExecContext(ctx,
		`insert into users(id, realm_id, email, phone, password_hash, first_name, last_name, locked_at, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.RealmID, u.Email, u.Phone, u.PasswordHash, u.FirstName, u.LastName, u.LockedAt, u.CreatedAt, u.UpdatedAt)
	return mapErr("insert user", err)
}

func (s userRepo) Update(ctx context.Context, u *users.User) error {
	res, err := s.q.ExecContext(ctx,
		`update users set email=$2, phone=$3, password_hash=$4, first_name=$5, last_name=$6, locked_at=$7, updated_at=$8
		where id=$1`,
		u.ID, u.Email, u.Phone, u.PasswordHash, u.FirstName, u.LastName, u.LockedAt, u.UpdatedAt)
	if err != nil {
		return mapErr("update user", err)
	}
	return affected("update user", res)
}

func (s userRepo) Get(ctx context.Context, id uuid.UUID) (*users.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id))
	return u, mapErr("user", err)
}

func (s userRepo) GetByEmail(ctx context.Context, realmID uuid.UUID, email string) (*users.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx,
		`select `+userColumns+` from users where realm_id=$1 and lower(email)=lower($2)`, realmID, email))
	return u, mapErr("user", err)
}

func (s userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return mapErr("delete user", err)
	}
	return affected("delete user", res)
}

// Resource group store -------------------------------------------------------
type groupRepo struct{ q querier }

const groupColumns = `id, realm_id, client_id, user_id, name, is_default, locked_at, created_at, updated_at`

func scanGroup(row scanner) (*resources.Group, error) {
	var (
		g        resources.Group
		lockedAt sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.RealmID, &g.ClientID, &g.UserID, &g.Name, &g.IsDefault,
		&lockedAt, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.LockedAt = timePtr(lockedAt)
	return &g, nil
}

func (s groupRepo) Insert(ctx context.Context, g *resources.Group) error {
	_, err := s.q.ExecContext(ctx,
		`insert into resource_groups(id, realm_id, client_id, user_id, name, is_default, locked_at, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		g.ID, g.RealmID, g.ClientID, g.UserID, g.Name, g.IsDefault, g.LockedAt, g.CreatedAt, g.UpdatedAt)
	return mapErr("insert resource group", err)
}

func (s groupRepo) Update(ctx context.Context, g *resources.Group) error {
	res, err := s.q.ExecContext(ctx,
		`update resource_groups set name=$2, is_default=$3, locked_at=$4, updated_at=$5 where id=$1`,
		g.ID, g.Name, g.IsDefault, g.LockedAt, g.UpdatedAt)
	if err != nil {
		return mapErr("update resource group", err)
	}
	return affected("update resource group", res)
}

func (s groupRepo) Get(ctx context.Context, id uuid.UUID) (*resources.Group, error) {
	g, err := scanGroup(s.q.QueryRowContext(ctx, `select `+groupColumns+` from resource_groups where id=$1`, id))
	return g, mapErr("resource group", err)
}

func (s groupRepo) ListByClientUser(ctx context.Context, clientID, userID uuid.UUID) ([]*resources.Group, error) {
	rows, err := s.q.QueryContext(ctx,
		`select `+groupColumns+` from resource_groups where client_id=$1 and user_id=$2
		order by is_default desc, created_at asc`, clientID, userID)
	if err != nil {
		return nil, mapErr("list resource groups", err)
	}
	defer rows.Close()

	var res []*resources.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, mapErr("list resource groups", err)
		}
		res = append(res, g)
	}
	return res, mapErr("list resource groups", rows.Err())
}

func (s groupRepo) ClearDefaults(ctx context.Context, clientID, userID, exceptID uuid.UUID) error {
	_, err := s.q.ExecContext(ctx,
		`update resource_groups set is_default=false where client_id=$1 and user_id=$2 and id<>$3 and is_default`,
		clientID, userID, exceptID)
	return mapErr("clear default resource groups", err)
}

func (s groupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `delete from resource_groups where id=$1`, id)
	if err != nil {
		return mapErr("delete resource group", err)
	}
	return affected("delete resource group", res)
}

// Resource store -------------------------------------------------------------
type resourceRepo struct{ q querier }

const resourceColumns = `id, group_id, name, value, locked_at, created_at, updated_at`

func scanResource(row scanner) (*resources.Resource, error) {
	var (
		r        resources.Resource
		lockedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.GroupID, &r.Name, &r.Value, &lockedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.LockedAt = timePtr(lockedAt)
	return &r, nil
}

func (s resourceRepo) Insert(ctx context.Context, r *resources.Resource) error {
	_, err := s.q.ExecContext(ctx,
		`insert into resources(id, group_id, name, value, locked_at, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.GroupID, r.Name, r.Value, r.LockedAt, r.CreatedAt, r.UpdatedAt)
	return mapErr("insert resource", err)
}

func (s resourceRepo) Update(ctx context.Context, r *resources.Resource) error {
	res, err := s.q.ExecContext(ctx,
		`update resources set name=$2, value=$3, locked_at=$4, updated_at=$5 where id=$1`,
		r.ID, r.Name, r.Value, r.LockedAt, r.UpdatedAt)
	if err != nil {
		return mapErr("update resource", err)
	}
	return affected("update resource", res)
}

func (s resourceRepo) Get(ctx context.Context, id uuid.UUID) (*resources.Resource, error) {
	r, err := scanResource(s.q.QueryRowContext(ctx, `select `+resourceColumns+` from resources where id=$1`, id))
	return r, mapErr("resource", err)
}

func (s resourceRepo) list(ctx context.Context, query string, groupID uuid.UUID) ([]*resources.Resource, error) {
	rows, err := s.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, mapErr("list resources", err)
	}
	defer rows.Close()

	var res []*resources.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, mapErr("list resources", err)
		}
		res = append(res, r)
	}
	return res, mapErr("list resources", rows.Err())
}

func (s resourceRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*resources.Resource, error) {
	return s.list(ctx, `select `+resourceColumns+` from resources where group_id=$1 order by name asc`, groupID)
}

func (s resourceRepo) ListActiveByGroup(ctx context.Context, groupID uuid.UUID) ([]*resources.Resource, error) {
	return s.list(ctx,
		`select `+resourceColumns+` from resources where group_id=$1 and locked_at is null order by name asc`, groupID)
}

func (s resourceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `delete from resources where id=$1`, id)
	if err != nil {
		return mapErr("delete resource", err)
	}
	return affected("delete resource", res)
}

// Session store --------------------------------------------------------------
type sessionRepo struct{ q querier }

func (s sessionRepo) Insert(ctx context.Context, ss *sessions.Session) error {
	_, err := s.q.ExecContext(ctx,
		`insert into sessions(id, user_id, client_id, refresh_family_id, ip_address, user_agent, browser,
			browser_version, operating_system, device_type, country_code, expires, created_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		ss.ID, ss.UserID, ss.ClientID, ss.RefreshFamilyID, ss.Info.IPAddress, ss.Info.UserAgent, ss.Info.Browser,
		ss.Info.BrowserVersion, ss.Info.OperatingSystem, ss.Info.DeviceType, ss.Info.CountryCode, ss.Expires, ss.CreatedAt)
	return mapErr("insert session", err)
}

func (s sessionRepo) Get(ctx context.Context, id uuid.UUID) (*sessions.Session, error) {
	var (
		ss     sessions.Session
		family uuid.NullUUID
	)
	err := s.q.QueryRowContext(ctx,
		`select id, user_id, client_id, refresh_family_id, ip_address, user_agent, browser, browser_version,
			operating_system, device_type, country_code, expires, created_at
		from sessions where id=$1`, id).
		Scan(&ss.ID, &ss.UserID, &ss.ClientID, &family, &ss.Info.IPAddress, &ss.Info.UserAgent, &ss.Info.Browser,
			&ss.Info.BrowserVersion, &ss.Info.OperatingSystem, &ss.Info.DeviceType, &ss.Info.CountryCode,
			&ss.Expires, &ss.CreatedAt)
	if err != nil {
		return nil, mapErr("session", err)
	}
	if family.Valid {
		ss.RefreshFamilyID = &family.UUID
	}
	return &ss, nil
}

func (s sessionRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.q.ExecContext(ctx, `delete from sessions where id=$1`, id)
	if err != nil {
		return false, mapErr("delete session", err)
	}
	n, err := res.RowsAffected()
	return n > 0, mapErr("delete session", err)
}

func (s sessionRepo) DeleteByClientUser(ctx context.Context, clientID, userID uuid.UUID) (int, error) {
	res, err := s.q.ExecContext(ctx, `delete from sessions where client_id=$1 and user_id=$2`, clientID, userID)
	if err != nil {
		return 0, mapErr("delete sessions", err)
	}
	n, err := res.RowsAffected()
	return int(n), mapErr("delete sessions", err)
}

func (s sessionRepo) CountActive(ctx context.Context, clientID, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`select count(*) from sessions where client_id=$1 and user_id=$2 and expires > $3`,
		clientID, userID, now).Scan(&n)
	return n, mapErr("count sessions", err)
}

func (s sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.q.ExecContext(ctx, `delete from sessions where expires <= $1`, now)
	if err != nil {
		return 0, mapErr("delete expired sessions", err)
	}
	n, err := res.RowsAffected()
	return int(n), mapErr("delete expired sessions", err)
}

// Refresh token family store -------------------------------------------------
type familyRepo struct{ q querier }

const familyColumns = `id, user_id, client_id, realm_id, re_used_count, locked_at, created_at, updated_at`

func scanFamily(row scanner) (*refresh.Family, error) {
	var (
		f        refresh.Family
		lockedAt sql.NullTime
	)
	if err := row.Scan(&f.ID, &f.UserID, &f.ClientID, &f.RealmID, &f.ReuseCount, &lockedAt,
		&f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.LockedAt = timePtr(lockedAt)
	return &f, nil
}

func (s familyRepo) Insert(ctx context.Context, f *refresh.Family) error {
	_, err := s.q.ExecContext(ctx,
		`insert into refresh_token_families(id, user_id, client_id, realm_id, re_used_count, locked_at, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7,$8)`,
		f.ID, f.UserID, f.ClientID, f.RealmID, f.ReuseCount, f.LockedAt, f.CreatedAt, f.UpdatedAt)
	return mapErr("insert refresh token family", err)
}

func (s familyRepo) Update(ctx context.Context, f *refresh.Family) error {
	res, err := s.q.ExecContext(ctx,
		`update refresh_token_families set re_used_count=$2, locked_at=$3, updated_at=$4 where id=$1`,
		f.ID, f.ReuseCount, f.LockedAt, f.UpdatedAt)
	if err != nil {
		return mapErr("update refresh token family", err)
	}
	return affected("update refresh token family", res)
}

func (s familyRepo) GetActive(ctx context.Context, id uuid.UUID) (*refresh.Family, error) {
	f, err := scanFamily(s.q.QueryRowContext(ctx,
		`select `+familyColumns+` from refresh_token_families where id=$1 and locked_at is null`, id))
	return f, mapErr("refresh token family", err)
}

func (s familyRepo) GetActiveForUpdate(ctx context.Context, id uuid.UUID) (*refresh.Family, error) {
	f, err := scanFamily(s.q.QueryRowContext(ctx,
		`select `+familyColumns+` from refresh_token_families where id=$1 and locked_at is null for update`, id))
	return f, mapErr("refresh token family", err)
}

func (s familyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `delete from refresh_token_families where id=$1`, id)
	return mapErr("delete refresh token family", err)
}

// API credential store -------------------------------------------------------
type credentialRepo struct{ q querier }

func (s credentialRepo) Insert(ctx context.Context, c *apicreds.Credential) error {
	_, err := s.q.ExecContext(ctx,
		`insert into api_credentials(id, secret, realm_id, client_id, name, description, role, access, expires,
			locked_at, created_at, updated_at)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		c.ID, c.Secret, c.RealmID, c.ClientID, c.Name, c.Description, string(c.Role), string(c.Access), c.Expires,
		c.LockedAt, c.CreatedAt, c.UpdatedAt)
	return mapErr("insert api credential", err)
}

func (s credentialRepo) Update(ctx context.Context, c *apicreds.Credential) error {
	res, err := s.q.ExecContext(ctx,
		`update api_credentials set secret=$2, name=$3, description=$4, role=$5, access=$6, expires=$7,
			locked_at=$8, updated_at=$9
		where id=$1`,
		c.ID, c.Secret, c.Name, c.Description, string(c.Role), string(c.Access), c.Expires, c.LockedAt, c.UpdatedAt)
	if err != nil {
		return mapErr("update api credential", err)
	}
	return affected("update api credential", res)
}

func (s credentialRepo) GetActive(ctx context.Context, id uuid.UUID) (*apicreds.Credential, error) {
	var (
		c           apicreds.Credential
		description sql.NullString
		role, level string
		lockedAt    sql.NullTime
	)
	err := s.q.QueryRowContext(ctx,
		`select id, secret, realm_id, client_id, name, description, role, access, expires, locked_at, created_at, updated_at
		from api_credentials where id=$1 and locked_at is null`, id).
		Scan(&c.ID, &c.Secret, &c.RealmID, &c.ClientID, &c.Name, &description, &role, &level, &c.Expires,
			&lockedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr("api credential", err)
	}
	c.Description = stringPtr(description)
	c.Role = access.Role(role)
	c.Access = access.Level(level)
	c.LockedAt = timePtr(lockedAt)
	return &c, nil
}

func (s credentialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `delete from api_credentials where id=$1`, id)
	if err != nil {
		return mapErr("delete api credential", err)
	}
	return affected("delete api credential", res)
}
