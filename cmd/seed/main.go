package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"planetguard/internal/config"
	"planetguard/internal/logging"
	"planetguard/internal/model"
	"planetguard/internal/repository"
	"planetguard/internal/service"
)

type q struct {
	category   string
	difficulty model.Difficulty
	text       string
	options    [4]string
	correct    int
}

var bank = []q{
	{"science", model.DifficultyEasy, "What gas do plants absorb from the air?", [4]string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, 2},
	{"science", model.DifficultyMedium, "What is the chemical symbol for sodium?", [4]string{"So", "Na", "Sd", "S"}, 1},
	{"science", model.DifficultyHard, "Which particle has no electric charge?", [4]string{"Proton", "Electron", "Positron", "Neutron"}, 3},
	{"history", model.DifficultyEasy, "In which year did World War II end?", [4]string{"1943", "1945", "1947", "1950"}, 1},
	{"history", model.DifficultyMedium, "Who was the first emperor of Rome?", [4]string{"Julius Caesar", "Nero", "Augustus", "Trajan"}, 2},
	{"history", model.DifficultyHard, "The Treaty of Westphalia was signed in which year?", [4]string{"1648", "1715", "1588", "1789"}, 0},
	{"gaming", model.DifficultyEasy, "Which company created Mario?", [4]string{"Sega", "Sony", "Nintendo", "Atari"}, 2},
	{"gaming", model.DifficultyMedium, "In Minecraft, what do you need to craft a torch?", [4]string{"Stick and coal", "Iron and stick", "Wool and wood", "Sand and coal"}, 0},
	{"movies", model.DifficultyEasy, "Who directed Jurassic Park?", [4]string{"James Cameron", "Steven Spielberg", "Ridley Scott", "George Lucas"}, 1},
	{"movies", model.DifficultyMedium, "Which film won the first Academy Award for Best Picture?", [4]string{"Wings", "Sunrise", "Metropolis", "The Jazz Singer"}, 0},
	{"sports", model.DifficultyEasy, "How many players does a soccer team field?", [4]string{"9", "10", "11", "12"}, 2},
	{"sports", model.DifficultyMedium, "Which country hosted the 2016 Summer Olympics?", [4]string{"China", "Brazil", "UK", "Japan"}, 1},
	{"tech", model.DifficultyEasy, "What does CPU stand for?", [4]string{"Central Processing Unit", "Computer Personal Unit", "Central Program Utility", "Core Processing Utility"}, 0},
	{"tech", model.DifficultyMedium, "Which language runs natively in web browsers?", [4]string{"Go", "Python", "JavaScript", "C#"}, 2},
	{"tech", model.DifficultyHard, "What is the default port for HTTPS?", [4]string{"80", "8080", "22", "443"}, 3},
	{"music", model.DifficultyEasy, "How many lines does a musical staff have?", [4]string{"4", "5", "6", "7"}, 1},
	{"geography", model.DifficultyEasy, "What is the largest ocean?", [4]string{"Atlantic", "Indian", "Pacific", "Arctic"}, 2},
	{"geography", model.DifficultyMedium, "What is the capital of Australia?", [4]string{"Sydney", "Melbourne", "Perth", "Canberra"}, 3},
	{"literature", model.DifficultyEasy, "Who wrote Romeo and Juliet?", [4]string{"Shakespeare", "Dickens", "Austen", "Tolstoy"}, 0},
	{"art", model.DifficultyEasy, "Who painted the Mona Lisa?", [4]string{"Michelangelo", "Leonardo da Vinci", "Raphael", "Donatello"}, 1},
	{"food", model.DifficultyEasy, "Which country is sushi from?", [4]string{"China", "Korea", "Japan", "Thailand"}, 2},
	{"animals", model.DifficultyEasy, "What is the fastest land animal?", [4]string{"Lion", "Cheetah", "Horse", "Gazelle"}, 1},
	{model.CategoryGeneral, model.DifficultyEasy, "How many days are in a leap year?", [4]string{"364", "365", "366", "367"}, 2},
	{model.CategoryGeneral, model.DifficultyEasy, "Which planet is known as the Red Planet?", [4]string{"Venus", "Mars", "Jupiter", "Saturn"}, 1},
	{model.CategoryGeneral, model.DifficultyMedium, "How many continents are there?", [4]string{"5", "6", "7", "8"}, 2},
}

var demoUsers = []model.Profile{
	{ID: "demo-ada", Username: "ada", Interests: []string{"science", "tech"}},
	{ID: "demo-linus", Username: "linus", Interests: []string{"tech", "gaming"}},
	{ID: "demo-grace", Username: "grace", Interests: []string{"history"}},
	{ID: "demo-alan", Username: "alan", Interests: nil},
}

func main() {
	force := flag.Bool("force", false, "insert questions even if the bank is not empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("connect mongo", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}

	questions := repository.NewQuestionRepo(db)
	count, err := questions.Count(ctx)
	if err != nil {
		logger.Fatal("count questions", zap.Error(err))
	}
	if count == 0 || *force {
		now := time.Now().UTC()
		docs := make([]model.Question, 0, len(bank))
		for _, b := range bank {
			docs = append(docs, model.Question{
				Text:          b.text,
				Options:       b.options[:],
				CorrectAnswer: b.correct,
				Category:      b.category,
				Difficulty:    b.difficulty,
				CreatedAt:     now,
			})
		}
		if err := questions.InsertMany(ctx, docs); err != nil {
			logger.Fatal("insert questions", zap.Error(err))
		}
		logger.Info("seeded questions", zap.Int("count", len(docs)))
	} else {
		logger.Info("question bank already seeded", zap.Int64("count", count))
	}

	profiles := repository.NewProfileRepo(db)
	auth := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)
	for i := range demoUsers {
		u := &demoUsers[i]
		if err := profiles.Upsert(ctx, u); err != nil {
			logger.Fatal("upsert profile", zap.String("user", u.ID), zap.Error(err))
		}
		token, err := auth.IssueToken(u.ID, u.Username)
		if err != nil {
			logger.Fatal("issue token", zap.Error(err))
		}
		fmt.Printf("%-8s %s\n", u.Username, token)
	}
}
