package basic_auth

import (
	"context"
	"encoding/base64"
	"strconv"

	"github.com/favbox/spool/app"
	"github.com/favbox/spool/internal/bytesconv"
	"github.com/favbox/spool/protocol/consts"
)

// Accounts 用于构建用户名:密码映射。
type Accounts map[string]string

// 用于构建标头值:用户名的反向映射。
type pairs map[string]string

type ctxKeyUser struct{}

func (p pairs) findValue(needle string) (v string, ok bool) {
	v, ok = p[needle]
	return
}

func constructPairs(accounts Accounts) pairs {
	length := len(accounts)
	p := make(pairs, length)
	for user, password := range accounts {
		value := "Basic " + base64.StdEncoding.EncodeToString(bytesconv.S2b(user+":"+password))
		p[value] = user
	}
	return p
}

// BasicAuthForRealm 返回指定领域的基本 HTTP 授权中间件。
// accounts 类型为 map[string]string，其中 key 是用户名，value 密码。
// realm 是资源所在的领域名称，若为空白字符串则默认使用 "Authorization Required"。
// 详见 http://tools.ietf.org/html/rfc2617#section-1.2
func BasicAuthForRealm(accounts Accounts, realm string) app.HandlerFunc {
	if realm == "" {
		realm = "Authorization Required"
	}
	realm = "Basic realm=" + strconv.Quote(realm)
	p := constructPairs(accounts)
	return func(c context.Context, r *app.ResponseContext) {
		// 在允许的凭据切片中搜索用户
		user, found := p.findValue(r.Request.Get("Authorization"))
		if !found {
			// 凭据不匹配，返回 401 并终止处理链。
			r.Abort()
			_ = r.SetStatus(consts.StatusUnauthorized)
			_ = r.Header("WWW-Authenticate", realm)
			_ = r.End(nil)
			return
		}

		// 找到用户凭证，存入上下文供后续处理器通过 User 获取。
		r.Next(context.WithValue(c, ctxKeyUser{}, user))
	}
}

// BasicAuth 用于构造 spool 授权中间件。
// 它返回一个中间件，以 map[string]string 为参数，其中 key 是用户名，value 密码。
func BasicAuth(accounts Accounts) app.HandlerFunc {
	return BasicAuthForRealm(accounts, "")
}

// User 返回通过授权的用户名。
func User(c context.Context) (string, bool) {
	user, ok := c.Value(ctxKeyUser{}).(string)
	return user, ok
}
