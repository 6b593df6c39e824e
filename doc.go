// # Go Client Package for the Gemini Live API
//
// This repository provides a Go package for building applications that hold real-time, two-way multimodal conversations with a generative AI service over a persistent WebSocket connection. It manages the session lifecycle, frames outbound text/audio/video and tool responses, and re-emits decoded server frames as an ordered stream of typed events for your own consumers.
package live
