package server

// Identity 外部身份服务为一个会话解析出的展示信息
type Identity struct {
	Username string
	Verified bool
	Wallet   string
}

// IdentityResolver 身份服务协作方接口：令牌对本核心不透明，只做转发
// 解析发生在加入流程的锁外，失败不阻断加入
type IdentityResolver interface {
	Resolve(token string) (Identity, bool)
}

// AnonymousResolver 缺省实现：不接身份服务时所有会话匿名
type AnonymousResolver struct{}

func (AnonymousResolver) Resolve(string) (Identity, bool) { return Identity{}, false }
