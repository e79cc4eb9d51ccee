// 包 version：构建信息，由 -ldflags "-X center-lookup/internal/version.Commit=<sha>" 注入
package version

// Commit：构建时的提交号，本地构建为 "dev"
var Commit = "dev"
