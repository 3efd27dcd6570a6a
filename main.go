// @title English Edu 学习看板 API
// @version 1.0
// @description 英语学习看板服务：代理学习后端，托管模拟考试会话。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

package main

import (
	"english_edu_dashboard/internal/app"
	"english_edu_dashboard/internal/config"
	"english_edu_dashboard/pkg/logger"
	"flag"
	"log"
)

// @securityDefinitions.apikey SessionAuth
// @in header
// @name X-Session-ID
func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录（包含 config.yaml）")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
