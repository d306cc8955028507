package route

import (
	"context"
	"errors"
	"io"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/favbox/spool/app"
	"github.com/favbox/spool/common/config"
	errs "github.com/favbox/spool/common/errors"
	"github.com/favbox/spool/common/hlog"
	"github.com/favbox/spool/internal/bytestr"
	"github.com/favbox/spool/internal/nocopy"
	"github.com/favbox/spool/network"
	"github.com/favbox/spool/network/netpoll"
	"github.com/favbox/spool/protocol"
	"github.com/favbox/spool/protocol/consts"
	"github.com/favbox/spool/protocol/http1"
)

const unknownTransporterName = "unknown"

const (
	_ uint32 = iota
	statusInitialized
	statusRunning
	statusShutdown
	statusClosed
)

var (
	// 默认网络传输器
	defaultTransporter = netpoll.NewTransporter

	errInitFailed       = errs.NewPrivate("路由引擎已经初始化")
	errAlreadyRunning   = errs.NewPrivate("路由引擎已在运行中")
	errStatusNotRunning = errs.NewPrivate("路由引擎未在运行中")

	default404Body = []byte("404 Not Found")
	default400Body = []byte("400 Bad Request")
)

// CtxCallback 引擎关闭时，同时触发的钩子函数
type CtxCallback func(ctx context.Context)

// CtxErrCallback 引擎启动时，依次触发的钩子函数
type CtxErrCallback func(ctx context.Context) error

// SetTransporter 设置全局默认的网络传输器。
func SetTransporter(transporter func(options *config.Options) network.Transporter) {
	defaultTransporter = transporter
}

// NewEngine 创建给定选项的路由引擎。
func NewEngine(opts *config.Options) *Engine {
	engine := &Engine{
		RouterGroup: RouterGroup{
			basePath: "/",
			root:     true,
		},
		routes:  make(map[string]map[string]*routeEntry),
		options: opts,
	}
	if opts.TransporterNewer != nil {
		engine.transport = opts.TransporterNewer(opts)
	} else {
		engine.transport = defaultTransporter(opts)
	}
	engine.RouterGroup.engine = engine
	engine.rebuild404Handlers()
	return engine
}

type routeEntry struct {
	handlers app.HandlersChain
	name     string
}

// Engine 路由引擎，按请求方法和路径精确匹配处理链，并驱动 HTTP/1.1 服务器。
type Engine struct {
	noCopy nocopy.NoCopy

	// 引擎名称，同时作为 Server 响应头。为空时使用 "spool"。
	Name       string
	serverName atomic.Value

	options *config.Options

	// 路由
	RouterGroup
	mu     sync.RWMutex
	routes map[string]map[string]*routeEntry // method -> path -> entry

	allNoRoute app.HandlersChain // 框架级路由找不到处理器
	noRoute    app.HandlersChain // 用户级路由找不到处理器

	// 底层传输的网络库
	transport network.Transporter

	server protocol.Server

	// PanicHandler 处理从处理器中恢复的 panic，为空时不做恢复。
	PanicHandler app.HandlerFunc

	// 用于表示引擎状态（Init/Running/Shutdown/Closed）。
	status uint32

	// OnRun 是引擎启动时，依次触发的一组钩子函数。
	OnRun []CtxErrCallback

	// OnShutdown 是引擎关闭时，并行触发的一组钩子函数。
	OnShutdown []CtxCallback
}

// Run 初始化并由传输器监听连接并提供 Serve 服务。
func (engine *Engine) Run() (err error) {
	if err = engine.Init(); err != nil {
		return err
	}

	if err = engine.MarkAsRunning(); err != nil {
		return err
	}

	// 返回监听服务出错后，切换引擎状态至已关闭
	defer atomic.StoreUint32(&engine.status, statusClosed)

	ctx := context.Background()
	for i := range engine.OnRun {
		if err = engine.OnRun[i](ctx); err != nil {
			return err
		}
	}

	return engine.listenAndServe()
}

func (engine *Engine) listenAndServe() error {
	hlog.SystemLogger().Infof("使用网络库=%s", engine.GetTransporterName())
	return engine.transport.ListenAndServe(engine.onData)
}

func (engine *Engine) onData(ctx context.Context, conn any) (err error) {
	if c, ok := conn.(network.Conn); ok {
		err = engine.Serve(ctx, c)
	}
	return
}

// MarkAsRunning 将引擎状态设为“运行中”。
// 警告：除非你知道自己在做什么，否则勿用此法。
func (engine *Engine) MarkAsRunning() error {
	if !atomic.CompareAndSwapUint32(&engine.status, statusInitialized, statusRunning) {
		return errAlreadyRunning
	}
	return nil
}

// Init 创建 HTTP/1.1 服务器，使用传输器的轮询器挂起和唤醒连接。
func (engine *Engine) Init() error {
	if !atomic.CompareAndSwapUint32(&engine.status, 0, statusInitialized) {
		return errInitFailed
	}

	s := http1.NewServer(engine.options, engine, engine.transport.Poller())
	s.ServerName = engine.GetServerName()
	engine.server = s
	return nil
}

// Shutdown 优雅退出服务器，步骤如下：
//
//  1. 并行触发 Engine.OnShutdown 钩子函数，直至完成或超时；
//  2. 关闭网络监听器，不再接受新连接；
//  3. 等待所有连接关闭，直至触达 ctx 的截止时间。
func (engine *Engine) Shutdown(ctx context.Context) (err error) {
	if !atomic.CompareAndSwapUint32(&engine.status, statusRunning, statusShutdown) {
		return errStatusNotRunning
	}

	ch := make(chan struct{})
	go engine.executeOnShutdownHooks(ctx, ch)
	defer func() {
		// 确保钩子执行完成或超时
		select {
		case <-ctx.Done():
			hlog.SystemLogger().Infof("执行 OnShutdownHooks 超时：错误=%v", ctx.Err())
		case <-ch:
			hlog.SystemLogger().Info("执行 OnShutdownHooks 完成")
		}
	}()

	if err := engine.transport.Shutdown(ctx); err != ctx.Err() {
		return err
	}
	return
}

// Close 立即关闭传输器。
func (engine *Engine) Close() error {
	return engine.transport.Close()
}

// Serve 提供连接服务，请求由 HTTP/1.1 服务器读取后交给 ServeHTTP。
func (engine *Engine) Serve(ctx context.Context, conn network.Conn) (err error) {
	defer func() {
		errProcess(conn, err)
	}()
	return engine.server.Serve(ctx, conn)
}

// ↓ ↓ ↓ ↓ ↓ http1.Core 接口的具体实现  ↓ ↓ ↓ ↓ ↓

// IsRunning 报告引擎是否正在运行。
func (engine *Engine) IsRunning() bool {
	return atomic.LoadUint32(&engine.status) == statusRunning
}

// Resume 在异步结束的响应之后关闭连接，err 为短连接时不记录日志。
func (engine *Engine) Resume(_ context.Context, conn network.Conn, err error) {
	errProcess(conn, err)
}

// ServeHTTP 提供请求服务。在服务过程中，会自动调用用户扩展的 app.HandlerFunc。
func (engine *Engine) ServeHTTP(c context.Context, r *app.ResponseContext) {
	if engine.PanicHandler != nil {
		defer engine.recover(c, r)
	}

	rPath := r.Request.Path()

	// 若路由路径为空或未以 '/' 开头，需遵循 RFC7230#section-5.3
	if rPath == "" || rPath[0] != '/' {
		r.SetHandlers(engine.allNoRoute)
		serveError(c, r, consts.StatusBadRequest, default400Body)
		return
	}

	engine.mu.RLock()
	entry := engine.routes[r.Request.Method][rPath]
	engine.mu.RUnlock()
	if entry != nil {
		r.SetHandlers(entry.handlers)
		r.Next(c)
		return
	}

	r.SetHandlers(engine.allNoRoute)
	serveError(c, r, consts.StatusNotFound, default404Body)
}

// ↑ ↑ ↑ ↑ ↑ http1.Core 接口的具体实现  ↑ ↑ ↑ ↑ ↑

// Use 添加全局中间件。
//
// 将中间件包含在每个请求的处理链中，包括 404。
//
// 常用场景：日志记录、错误管理等。
func (engine *Engine) Use(middleware ...app.HandlerFunc) Router {
	engine.RouterGroup.Use(middleware...)
	engine.rebuild404Handlers()
	return engine
}

// GetOptions 返回路由器和协议服务器的配置项。
func (engine *Engine) GetOptions() *config.Options {
	return engine.options
}

// GetServerName 获取服务器名称。
func (engine *Engine) GetServerName() []byte {
	v := engine.serverName.Load()
	if v != nil {
		return v.([]byte)
	}
	serverName := []byte(engine.Name)
	if len(serverName) == 0 {
		serverName = bytestr.DefaultServerName
	}
	engine.serverName.Store(serverName)
	return serverName
}

// GetTransporterName 获取底层网络传输器的名称。
func (engine *Engine) GetTransporterName() string {
	return getTransporterName(engine.transport)
}

// NoRoute 设置路由找不到时的处理链，默认返回 404 状态码。
func (engine *Engine) NoRoute(handlers ...app.HandlerFunc) {
	engine.noRoute = handlers
	engine.rebuild404Handlers()
}

// Routes 返回已注册的路由，顺序不作保证。
func (engine *Engine) Routes() (routes Routes) {
	engine.mu.RLock()
	defer engine.mu.RUnlock()
	for method, paths := range engine.routes {
		for p, entry := range paths {
			routes = append(routes, Route{
				Method:      method,
				Path:        p,
				Handler:     entry.name,
				HandlerFunc: entry.handlers.Last(),
			})
		}
	}
	return routes
}

func (engine *Engine) addRoute(method, path string, handlers app.HandlersChain) {
	if len(path) == 0 || path[0] != '/' {
		panic("路径必须以 '/' 开头")
	}
	if method == "" {
		panic("HTTP 方法不能为空")
	}
	if len(handlers) == 0 {
		panic("至少需要一个处理器")
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	paths := engine.routes[method]
	if paths == nil {
		paths = make(map[string]*routeEntry)
		engine.routes[method] = paths
	}
	if _, exists := paths[path]; exists {
		panic("路由重复注册：" + method + " " + path)
	}
	entry := &routeEntry{
		handlers: handlers,
		name:     nameOfFunction(handlers.Last()),
	}
	paths[path] = entry
	hlog.SystemLogger().Debugf("注册路由 %-6s %-25s --> %s (%d 个处理器)", method, path, entry.name, len(handlers))
}

// 处理恐慌。
func (engine *Engine) recover(c context.Context, r *app.ResponseContext) {
	if rcv := recover(); rcv != nil {
		engine.PanicHandler(c, r)
	}
}

// 重建 404 路由找不到处理器。
func (engine *Engine) rebuild404Handlers() {
	engine.allNoRoute = engine.combineHandlers(engine.noRoute)
}

// 执行引擎退出的回调钩子。
func (engine *Engine) executeOnShutdownHooks(ctx context.Context, ch chan struct{}) {
	wg := sync.WaitGroup{}
	for i := range engine.OnShutdown {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			engine.OnShutdown[index](ctx)
		}(i)
	}
	wg.Wait()
	ch <- struct{}{}
}

func getTransporterName(transporter network.Transporter) (tName string) {
	defer func() {
		err := recover()
		if err != nil || tName == "" {
			tName = unknownTransporterName
		}
	}()
	t := reflect.ValueOf(transporter).Type().String()
	tName = strings.Split(strings.TrimPrefix(t, "*"), ".")[0]
	return tName
}

func nameOfFunction(f any) string {
	return runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()
}

// 运行处理链，处理器没有接管响应时以给定的状态码和正文结束。
func serveError(c context.Context, r *app.ResponseContext, code int, defaultMessage []byte) {
	r.Next(c)
	if r.Ended() || r.StatusCode() != 0 {
		return
	}
	_ = r.SetStatus(code)
	_ = r.Header(consts.HeaderContentType, consts.MIMETextPlainUTF8)
	_ = r.Print(defaultMessage)
	_ = r.End(nil)
}

func errProcess(conn io.Closer, err error) {
	if err == nil {
		return
	}

	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	// 静默关闭连接
	if errors.Is(err, errs.ErrShortConnection) || errors.Is(err, io.EOF) {
		return
	}

	rip := getRemoteAddrFromCloser(conn)

	// 处理特定错误
	if hse, ok := conn.(network.HandleSpecificError); ok {
		if hse.HandleSpecificError(err, rip) {
			return
		}
	}

	hlog.SystemLogger().Errorf(hlog.FlushErrorFormat, err.Error(), rip)
}

func getRemoteAddrFromCloser(conn io.Closer) string {
	if c, ok := conn.(network.Conn); ok {
		if addr := c.RemoteAddr(); addr != nil {
			return addr.String()
		}
	}
	return ""
}
