package mail_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"khaja/internal/config"
	"khaja/internal/services"
)

var Module = fx.Provide(provideMailService)

// provideMailService sends through SMTP when mail.host is set. Without it notifications are
// only logged.
func provideMailService(cfg config.Config, log *zap.Logger) (services.IMailService, error) {
	if cfg.Mail.Host == "" {
		log.Info("smtp not configured, mail notifications are logged only")
		return services.NewLogMailService(log), nil
	}

	smtpCfg := services.SMTPConfig{
		Host:       cfg.Mail.Host,
		Port:       cfg.Mail.Port, // 587 for STARTTLS; use 465 with UseSSL=true for SMTPS
		Username:   cfg.Mail.Username,
		Password:   cfg.Mail.Password,
		From:       cfg.Mail.From,
		FromName:   cfg.Mail.FromName,
		UseSSL:     cfg.Mail.UseSSL,
		RequireTLS: cfg.Mail.RequireTLS,

		AppName:    cfg.App.Name,
		AppBaseURL: cfg.Mail.BaseURL,
	}

	mailService, err := services.NewSMTPMailService(smtpCfg)
	if err != nil {
		return nil, err
	}
	log.Info("smtp mail service ready", zap.String("host", cfg.Mail.Host), zap.Int("port", cfg.Mail.Port))
	return mailService, nil
}
