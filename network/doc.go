// Package network 定义响应刷新所需的连接读写接口与轮询器接口。
//
// netpoll 子包提供基于 cloudwego/netpoll 的传输器与轮询器实现。
package network
