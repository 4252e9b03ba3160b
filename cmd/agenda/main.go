package main

import (
	"context"

	assistanthandler "clinagenda/internal/assistant/handler"
	"clinagenda/internal/assistant/llm"
	assistantservice "clinagenda/internal/assistant/service"
	bookinghandler "clinagenda/internal/booking/handler"
	bookingrepository "clinagenda/internal/booking/repository"
	bookingservice "clinagenda/internal/booking/service"
	"clinagenda/internal/professionals/handler"
	"clinagenda/internal/professionals/repository"
	"clinagenda/internal/professionals/service"
	"clinagenda/internal/professionals/validator"
	wizardhandler "clinagenda/internal/wizard/handler"
	wizardservice "clinagenda/internal/wizard/service"
	"clinagenda/pkg/app"
	"clinagenda/pkg/config"
	"clinagenda/pkg/kafka"
)

const ServiceName = "agenda"

// @title Clinagenda API
// @version 1.0
// @description Availability and slot-booking core for the clinic agenda.
// @BasePath /
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Agenda service")

	professionalValidator := validator.NewProfessionalValidator(cfg.Log)

	professionalRepo := repository.NewMongoProfessionalRepository(cfg)
	professionalService := service.NewProfessionalService(professionalRepo, professionalValidator, cfg)

	producer := initProducer(cfg)
	if producer != nil {
		defer producer.Close()
	}

	bookingStore := bookingrepository.NewMongoProfessionalStore(cfg)
	slotLockRepo := bookingrepository.NewSlotLockRepository(cfg)
	booking := bookingservice.NewBookingService(bookingStore, slotLockRepo, professionalValidator, eventPublisher(producer), cfg)

	sessionFactory := initSessionFactory(cfg)
	if sessionFactory != nil {
		defer sessionFactory.Close()
	}
	assistant := assistantservice.NewAssistantService(llmFactory(sessionFactory), booking, cfg)

	wizard := wizardservice.NewWizardService(booking, cfg)

	cfg.Log.Info("Agenda service initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewProfessionalHandler(professionalService, cfg.Log),
		bookinghandler.NewBookingHandler(booking, cfg.Log),
		assistanthandler.NewAssistantHandler(assistant, cfg.Log),
		wizardhandler.NewWizardHandler(wizard, cfg.Log),
	)
	serverApp.Run()
}

// initProducer returns nil when no brokers are configured; booking then
// runs without event publishing.
func initProducer(cfg *config.Config) *kafka.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Kafka brokers not configured, appointment events disabled")
		return nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicAppointments)
	if err != nil {
		cfg.Log.Error("Failed to initialize Kafka producer, appointment events disabled", "error", err)
		return nil
	}

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.KafkaTopicAppointments)
	return producer
}

// initSessionFactory returns nil when no API key is configured; the
// assistant endpoint then answers 503.
func initSessionFactory(cfg *config.Config) *llm.GeminiSessionFactory {
	if cfg.GeminiAPIKey == "" {
		cfg.Log.Info("Gemini API key not configured, assistant disabled")
		return nil
	}

	factory, err := llm.NewGeminiSessionFactory(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, assistantservice.SystemPrompt())
	if err != nil {
		cfg.Log.Error("Failed to initialize Gemini client, assistant disabled", "error", err)
		return nil
	}

	cfg.Log.Info("Gemini client initialized", "model", cfg.GeminiModel)
	return factory
}

// Typed nils must not leak into the interface fields, so conversion
// happens only for non-nil values.
func eventPublisher(p *kafka.Producer) bookingservice.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func llmFactory(f *llm.GeminiSessionFactory) llm.SessionFactory {
	if f == nil {
		return nil
	}
	return f
}
