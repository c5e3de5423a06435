package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sokinpui/nekoai.go/nekoai"
)

var (
	// flags
	verbose      bool
	apiToken     string
	genModel     string
	resPreset    string
	width        int
	height       int
	steps        int
	scale        float64
	sampler      string
	noise        string
	seed         int64
	nSamples     int
	negative     string
	outputFolder string
	stream       bool
	imagePath    string
	strength     float64
	// choices
	validSamplers = []string{
		"k_euler",
		"k_euler_ancestral",
		"k_dpmpp_2s_ancestral",
		"k_dpmpp_2m",
		"k_dpmpp_2m_sde",
		"k_dpmpp_sde",
		"ddim_v3",
	}
	validNoises = []string{
		"native",
		"karras",
		"exponential",
		"polyexponential",
	}
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate images from a prompt",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		token := apiToken
		if token == "" {
			token = os.Getenv("NEKOAI_TOKEN")
		}
		if token == "" {
			log.Error("No API token (set NEKOAI_TOKEN or pass --api-token)")
			os.Exit(1)
		}
		// validate flags
		if !nekoai.Model(genModel).Valid() {
			log.Error(fmt.Sprintf("Invalid model (must be one of: %s)", joinModels()), "model", genModel)
			os.Exit(1)
		}
		if sampler != "" && !slices.Contains(validSamplers, sampler) {
			log.Error(fmt.Sprintf("Invalid sampler (must be one of: %s)", strings.Join(validSamplers, ", ")), "sampler", sampler)
			os.Exit(1)
		}
		if noise != "" && !slices.Contains(validNoises, noise) {
			log.Error(fmt.Sprintf("Invalid noise schedule (must be one of: %s)", strings.Join(validNoises, ", ")), "noise", noise)
			os.Exit(1)
		}

		md := &nekoai.Metadata{
			Prompt:         args[0],
			NegativePrompt: negative,
			Model:          nekoai.Model(genModel),
			ResPreset:      nekoai.Resolution(resPreset),
			Width:          width,
			Height:         height,
			Steps:          steps,
			Scale:          scale,
			Sampler:        nekoai.Sampler(sampler),
			NoiseSchedule:  nekoai.Noise(noise),
			Seed:           seed,
			NSamples:       nSamples,
			Stream:         stream,
		}
		if imagePath != "" {
			data, err := nekoai.LoadImage(imagePath)
			if err != nil {
				log.Error("Failed to read input image", "file", imagePath, "err", err)
				os.Exit(1)
			}
			md.Action = nekoai.ActionImg2Img
			md.Image = base64.StdEncoding.EncodeToString(data)
			md.Strength = strength
		}

		client := nekoai.New(token)
		if stream {
			runStream(cmd.Context(), client, md)
			return
		}

		log.Info("Generating...", "model", genModel)
		images, err := client.GenerateImage(cmd.Context(), md)
		if err != nil {
			log.Error("Generation failed", "err", err)
			os.Exit(1)
		}
		saveAll(images)
	},
}

func runStream(ctx context.Context, client *nekoai.Client, md *nekoai.Metadata) {
	log.Info("Generating (streaming)...", "model", genModel)
	eventCh, errCh := client.GenerateImageStream(ctx, md)
	var finals []nekoai.Image
	for ev := range eventCh {
		switch ev.Type {
		case nekoai.EventIntermediate:
			log.Debug("step", "step_ix", ev.StepIx, "sigma", ev.Sigma)
		case nekoai.EventFinal:
			finals = append(finals, ev.Image)
		}
	}
	if err := <-errCh; err != nil {
		log.Error("Generation failed", "err", err)
		os.Exit(1)
	}
	saveAll(finals)
}

func saveAll(images []nekoai.Image) {
	dir := outputFolder
	if dir == "" {
		dir = "."
	}
	for _, img := range images {
		if err := img.Save(dir, ""); err != nil {
			log.Error("Failed to save image", "file", img.Filename, "err", err)
			os.Exit(1)
		}
		log.Info("Saved", "file", img.Filename)
	}
}

func joinModels() string {
	models := nekoai.Models()
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func init() {
	generateCmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Verbose output")
	generateCmd.Flags().StringVarP(&apiToken, "api-token", "t", "", "NovelAI API token (overrides NEKOAI_TOKEN env var)")
	generateCmd.Flags().StringVarP(&genModel, "model", "m", string(nekoai.ModelV45), "Model to use")
	generateCmd.Flags().StringVarP(&resPreset, "resolution", "r", "", "Resolution preset (normal_square, large_portrait, etc)")
	generateCmd.Flags().IntVar(&width, "width", 0, "Explicit width, rounded to a multiple of 64")
	generateCmd.Flags().IntVar(&height, "height", 0, "Explicit height, rounded to a multiple of 64")
	generateCmd.Flags().IntVar(&steps, "steps", 0, "Denoising steps (1-50)")
	generateCmd.Flags().Float64Var(&scale, "scale", 0, "Guidance scale")
	generateCmd.Flags().StringVar(&sampler, "sampler", "", "Sampler override")
	generateCmd.Flags().StringVar(&noise, "noise", "", "Noise schedule override")
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "Seed (0 picks a random one)")
	generateCmd.Flags().IntVarP(&nSamples, "count", "n", 1, "Number of images")
	generateCmd.Flags().StringVar(&negative, "negative", "", "Negative prompt")
	generateCmd.Flags().BoolVar(&stream, "stream", false, "Stream intermediate steps (V4/V4.5 models)")
	generateCmd.Flags().StringVarP(&imagePath, "image", "i", "", "Input image for img2img")
	generateCmd.Flags().Float64Var(&strength, "strength", 0, "img2img strength (0.01-0.99, default 0.3)")
	generateCmd.MarkFlagFilename("image")
	generateCmd.Flags().StringVarP(&outputFolder, "output", "o", "", "Output folder")
	generateCmd.MarkFlagDirname("output")
}
