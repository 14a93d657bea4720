package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/cli"
	"github.com/fpang/auralens/internal/filehandler"
	"github.com/fpang/auralens/internal/session"
)

const toolName = "ethereal_light"

type etherealInput struct {
	Path        string `json:"path,omitempty" jsonschema:"Absolute path of a JPEG, PNG, WEBP or HEIC photo on this machine"`
	ImageBase64 string `json:"imageBase64,omitempty" jsonschema:"Photo content as base64 or a data URL, used when path is empty"`
	MediaType   string `json:"mediaType,omitempty" jsonschema:"Media type of imageBase64, e.g. image/jpeg"`
	OutputPath  string `json:"outputPath,omitempty" jsonschema:"Where to save the PNG result; nothing is written when empty"`
}

type etherealOutput struct {
	State      string `json:"state"`
	Error      string `json:"error,omitempty"`
	Hint       string `json:"hint,omitempty"`
	OutputPath string `json:"outputPath,omitempty"`
}

// tool relights one photo per call. Calls never share state.
type tool struct {
	gen session.Generator
}

func (t *tool) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        toolName,
		Description: "Infuse a photo with soft, cinematic sunlight and an ethereal atmospheric glow. Returns the transformed image as PNG.",
	}, t.handle)
}

func (t *tool) handle(ctx context.Context, req *mcp.CallToolRequest, in etherealInput) (*mcp.CallToolResult, etherealOutput, error) {
	candidate, err := t.candidate(in)
	if err != nil {
		return failure(err.Error()), etherealOutput{State: session.Failed.String(), Error: err.Error()}, nil
	}

	snap, err := session.New(toolName, t.gen).SelectFile(ctx, candidate)
	if err != nil {
		return failure(err.Error()), etherealOutput{State: session.Failed.String(), Error: err.Error()}, nil
	}

	out := etherealOutput{State: snap.State.String(), Error: snap.Error, Hint: snap.Hint}
	if snap.State != session.Succeeded {
		return failure(snap.Error), out, nil
	}

	_, data, err := filehandler.ParseDataURL(snap.ProcessedURL)
	if err != nil {
		return nil, etherealOutput{}, fmt.Errorf("generated image is unreadable: %w", err)
	}

	text := "Ethereal light applied to " + candidate.Name + "."
	if in.OutputPath != "" {
		info, err := cli.SaveDataURL(snap.ProcessedURL, in.OutputPath)
		if err != nil {
			return failure(err.Error()), etherealOutput{State: snap.State.String(), Error: err.Error()}, nil
		}
		out.OutputPath = in.OutputPath
		text = fmt.Sprintf("%s Saved to %s (%s).", text, in.OutputPath, info)
	}

	log.Info().Str("file", candidate.Name).Str("output", in.OutputPath).Msg("Tool call complete")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{Data: data, MIMEType: "image/png"},
			&mcp.TextContent{Text: text},
		},
	}, out, nil
}

func (t *tool) candidate(in etherealInput) (filehandler.UploadCandidate, error) {
	switch {
	case in.Path != "":
		return filehandler.LoadUploadCandidate(in.Path)
	case in.ImageBase64 != "":
		p, err := filehandler.NewEncodedPayload(in.ImageBase64, in.MediaType)
		if err != nil {
			return filehandler.UploadCandidate{}, err
		}
		data, err := p.Bytes()
		if err != nil {
			return filehandler.UploadCandidate{}, err
		}
		mediaType := in.MediaType
		if mediaType == "" {
			mediaType = filehandler.DetectMIMEType(data)
		}
		return filehandler.NewUploadCandidate("upload", data, mediaType), nil
	default:
		return filehandler.UploadCandidate{}, errors.New("either path or imageBase64 is required")
	}
}

func failure(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
