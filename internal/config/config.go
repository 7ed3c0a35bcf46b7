package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
)

type Config struct {
	Env      string `yaml:"env" env-default:"local"`
	Telegram struct {
		Enabled     bool   `yaml:"enabled" env-default:"true"`
		SecretToken string `yaml:"secret_token" env-default:""`
		SendTimeout int    `yaml:"send_timeout_sec" env-default:"10"`
	} `yaml:"telegram"`
	Webhook struct {
		PublicURL   string `yaml:"public_url" env-default:""`
		IntervalMin int    `yaml:"interval_min" env-default:"5"`
		MaxParallel int    `yaml:"max_parallel" env-default:"8"`
	} `yaml:"webhook"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
	ConversationLog struct {
		Path       string `yaml:"path" env-default:"/var/log/staffbot/conversation.log"`
		MaxSizeMB  int    `yaml:"max_size_mb" env-default:"100"`
		MaxBackups int    `yaml:"max_backups" env-default:"5"`
	} `yaml:"conversation-log"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9200"`
		ApiKey string `yaml:"key" env-default:""`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
