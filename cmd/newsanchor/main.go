// newsanchor 命令行：发布文章到 AssetHub / EduChain，查询集合、文章与身份，运行 HTTP API
package main

func main() {
	Execute()
}
