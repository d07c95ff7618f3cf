package sqlbind

import (
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// DSN returns the driver data source name. An explicit ConnectionConfig.DSN
// is used verbatim; otherwise it is assembled from Params and credentials.
func (c *Connection) DSN() string {
	if c.cfg.DSN != "" {
		return c.cfg.DSN
	}
	params := c.cfg.Params
	switch c.dialect {
	case MySQL:
		return mysqlDSN(c.cfg)
	case Postgres:
		return postgresDSN(c.cfg)
	case SQLServer:
		return sqlserverDSN(c.cfg)
	default:
		if p := params["path"]; p != "" {
			return p
		}
		return ":memory:"
	}
}

// mysqlDSN formats params with the driver's own Config so escaping and
// defaults follow go-sql-driver/mysql.
func mysqlDSN(cfg ConnectionConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	for k, v := range cfg.Params {
		switch k {
		case "host", "port":
		case "unix_socket":
			mc.Net = "unix"
			mc.Addr = v
		case "dbname":
			mc.DBName = v
		default:
			if mc.Params == nil {
				mc.Params = make(map[string]string)
			}
			mc.Params[k] = v
		}
	}
	if mc.Net != "unix" {
		if host := cfg.Params["host"]; host != "" {
			mc.Net = "tcp"
			mc.Addr = hostPort(host, cfg.Params["port"], "3306")
		}
	}
	return mc.FormatDSN()
}

// postgresDSN builds a keyword/value connection string.
func postgresDSN(cfg ConnectionConfig) string {
	kv := make(map[string]string, len(cfg.Params)+2)
	for k, v := range cfg.Params {
		kv[k] = v
	}
	if cfg.Username != "" {
		kv["user"] = cfg.Username
	}
	if cfg.Password != "" {
		kv["password"] = cfg.Password
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+pgValue(kv[k]))
	}
	return strings.Join(parts, " ")
}

// pgValue quotes a keyword/value entry when it is empty or has spaces,
// quotes or backslashes.
func pgValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// sqlserverDSN builds a sqlserver:// URL.
func sqlserverDSN(cfg ConnectionConfig) string {
	u := url.URL{Scheme: "sqlserver", Host: hostPort(cfg.Params["host"], cfg.Params["port"], "")}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	q := url.Values{}
	for k, v := range cfg.Params {
		switch k {
		case "host", "port":
		case "dbname":
			q.Set("database", v)
		default:
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func hostPort(host, port, def string) string {
	if port == "" {
		port = def
	}
	if port == "" {
		return host
	}
	return net.JoinHostPort(host, port)
}

// isMemoryDSN reports whether a SQLite DSN names an in-memory database.
func isMemoryDSN(dsn string) bool {
	return dsn == "" || strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
