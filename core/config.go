package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName  string
		Env      string // DEV (default), TEST, QA, PROD
		Build    string
		Debug    bool
		TestMode bool
		WorkDir  string

		SecretKey        string
		FrontendBaseURL  string
		BaseURL          string // public URL the provider calls back on
		DefaultLessonID  string
		DefaultFromMail  string
		OperatorEmail    string // lesson report recipient; empty disables reports
		RollbarToken     string
		SendgridApiKey   string
		CaregiverSMSLang string // "en" | "sw"

		Server struct {
			Host               string
			DebugHost          string
			ShutdownTimeout    time.Duration
			JWTExpirationDelta time.Duration
		}

		Database struct {
			Engine        string
			Name          string
			Host          string
			Port          string
			User          string
			Password      string
			AdminUser     string
			AdminPassword string
			DisableTLS    bool
		}

		// Africa's Talking; mock mode when Username/ApiKey are unset.
		AT struct {
			Username    string
			ApiKey      string
			SenderID    string
			VoiceNumber string
		}

		Reward RewardConfig
	}

	// RewardConfig holds the airtime tier table. Percent thresholds are
	// checked highest first; a score below the lowest threshold earns nothing.
	RewardConfig struct {
		Currency          string
		PassPercent       int
		HighPercent       int
		MidPercent        int
		LowPercent        int
		LearnerAmounts    [3]string // high, mid, low
		CaregiverAmounts  [3]string
		RewardCaregiver   bool
		FirstQuestionWait time.Duration // sms intro -> first question delay
	}
)

func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "SoundSteps")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("baseURL", "http://localhost:8000")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultLessonID", "basic-addition-001")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("operatorEmail", "")
	conf.SetDefault("caregiverSMSLang", "en")

	conf.SetDefault("serverHost", "0.0.0.0:8000")
	conf.SetDefault("serverDebugHost", "0.0.0.0:4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseName", "soundsteps")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseUser", "")
	conf.SetDefault("databasePassword", "")
	conf.SetDefault("databaseAdminUser", "postgres")
	conf.SetDefault("databaseAdminPassword", "")
	conf.SetDefault("databaseDisableTLS", true)

	conf.SetDefault("atUsername", "")
	conf.SetDefault("atApiKey", "")
	conf.SetDefault("atSenderID", "")
	conf.SetDefault("atVoiceNumber", "")

	conf.SetDefault("rewardCurrency", "KES")
	conf.SetDefault("rewardPassPercent", 70)
	conf.SetDefault("rewardHighPercent", 90)
	conf.SetDefault("rewardMidPercent", 70)
	conf.SetDefault("rewardLowPercent", 50)
	conf.SetDefault("rewardLearnerHigh", "10")
	conf.SetDefault("rewardLearnerMid", "5")
	conf.SetDefault("rewardLearnerLow", "2")
	conf.SetDefault("rewardCaregiverHigh", "5")
	conf.SetDefault("rewardCaregiverMid", "2")
	conf.SetDefault("rewardCaregiverLow", "1")
	conf.SetDefault("rewardCaregiverEnabled", true)
	conf.SetDefault("smsFirstQuestionWait", 2*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		AppName:          conf.GetString("appName"),
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         env == "TEST",
		WorkDir:          wd,
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		BaseURL:          strings.TrimRight(conf.GetString("baseURL"), "/"),
		DefaultLessonID:  conf.GetString("defaultLessonID"),
		DefaultFromMail:  conf.GetString("defaultFromEmail"),
		OperatorEmail:    conf.GetString("operatorEmail"),
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		CaregiverSMSLang: conf.GetString("caregiverSMSLang"),
	}
	c.Server.Host = conf.GetString("serverHost")
	c.Server.DebugHost = conf.GetString("serverDebugHost")
	c.Server.ShutdownTimeout = conf.GetDuration("serverShutdownTimeout")
	c.Server.JWTExpirationDelta = conf.GetDuration("jwtExpirationDelta")

	c.Database.Engine = conf.GetString("databaseEngine")
	c.Database.Name = conf.GetString("databaseName")
	c.Database.Host = conf.GetString("databaseHost")
	c.Database.Port = conf.GetString("databasePort")
	c.Database.User = conf.GetString("databaseUser")
	c.Database.Password = conf.GetString("databasePassword")
	c.Database.AdminUser = conf.GetString("databaseAdminUser")
	c.Database.AdminPassword = conf.GetString("databaseAdminPassword")
	c.Database.DisableTLS = conf.GetBool("databaseDisableTLS")

	c.AT.Username = conf.GetString("atUsername")
	c.AT.ApiKey = conf.GetString("atApiKey")
	c.AT.SenderID = conf.GetString("atSenderID")
	c.AT.VoiceNumber = conf.GetString("atVoiceNumber")

	c.Reward = RewardConfig{
		Currency:          conf.GetString("rewardCurrency"),
		PassPercent:       conf.GetInt("rewardPassPercent"),
		HighPercent:       conf.GetInt("rewardHighPercent"),
		MidPercent:        conf.GetInt("rewardMidPercent"),
		LowPercent:        conf.GetInt("rewardLowPercent"),
		LearnerAmounts:    [3]string{conf.GetString("rewardLearnerHigh"), conf.GetString("rewardLearnerMid"), conf.GetString("rewardLearnerLow")},
		CaregiverAmounts:  [3]string{conf.GetString("rewardCaregiverHigh"), conf.GetString("rewardCaregiverMid"), conf.GetString("rewardCaregiverLow")},
		RewardCaregiver:   conf.GetBool("rewardCaregiverEnabled"),
		FirstQuestionWait: conf.GetDuration("smsFirstQuestionWait"),
	}
	return c
}

// DefaultFromEmail returns the configured sender as a mail.Address.
func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromMail}
}

// ProviderLive reports whether Africa's Talking credentials are configured;
// otherwise the deterministic mock adapter is used.
func (c *Config) ProviderLive() bool {
	return c.AT.Username != "" && c.AT.ApiKey != ""
}

// DatabaseAddress returns host:port for the configured database.
func (c *Config) DatabaseAddress() string {
	return fmt.Sprintf("%s:%s", c.Database.Host, c.Database.Port)
}
