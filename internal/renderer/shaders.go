package renderer

import (
	"fmt"
	"strings"

	"Skyview/internal/logger"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// ShaderKind selects one of the built-in programs.
type ShaderKind int

const (
	ShaderStandard ShaderKind = iota
	ShaderCubemap
)

func (k ShaderKind) String() string {
	switch k {
	case ShaderStandard:
		return "standard"
	case ShaderCubemap:
		return "cubemap"
	}
	return fmt.Sprintf("ShaderKind(%d)", int(k))
}

// =============================================================
//
//	Shaders
//
// =============================================================
type Shader struct {
	Name           string
	vertexSource   string
	fragmentSource string
	program        uint32
	uniforms       *UniformCache
}

func (shader *Shader) Use() {
	gl.UseProgram(shader.program)
}

func (shader *Shader) Program() uint32 { return shader.program }

func (shader *Shader) Uniforms() *UniformCache { return shader.uniforms }

// Compile builds and links the program. It needs a current GL context.
func (shader *Shader) Compile() error {
	var cleanup Unwind
	defer cleanup.Unwind()

	vs, err := GenShader(shader.vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return fmt.Errorf("%s vertex shader: %w", shader.Name, err)
	}
	cleanup.Add(func() { gl.DeleteShader(vs) })

	fs, err := GenShader(shader.fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return fmt.Errorf("%s fragment shader: %w", shader.Name, err)
	}
	// the program owns both stages from here on
	cleanup.Discard()

	program, err := GenShaderProgram(vs, fs)
	if err != nil {
		return fmt.Errorf("%s program: %w", shader.Name, err)
	}

	shader.program = program
	shader.uniforms = NewUniformCache(program)
	logger.Log.Debug("Shader program linked", zap.String("shader", shader.Name), zap.Uint32("program", program))
	return nil
}

func (shader *Shader) Delete() {
	if shader.program != 0 {
		gl.DeleteProgram(shader.program)
		shader.program = 0
	}
}

func GenShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		logger.Log.Error("Failed to compile", zap.Uint32("shaderType", shaderType), zap.String("log", log))
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

// GenShaderProgram links the two stages. The stages are detached and deleted either way.
func GenShaderProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	gl.DetachShader(program, vertexShader)
	gl.DeleteShader(vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(fragmentShader)

	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		logger.Log.Error("Failed to link program", zap.String("log", log))
		return 0, fmt.Errorf("link: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

var standardVertexShaderSource = `#version 410 core

layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec2 inTexCoord;
layout(location = 2) in vec3 inNormal;

uniform mat4 model;
uniform mat4 viewProjection;

out vec2 fragTexCoord;
out vec3 Normal;
out vec3 FragPos;

void main() {
    FragPos = vec3(model * vec4(inPosition, 1.0));
    Normal = mat3(transpose(inverse(model))) * inNormal;
    fragTexCoord = inTexCoord;
    gl_Position = viewProjection * vec4(FragPos, 1.0);
}
` + "\x00"

var standardFragmentShaderSource = `#version 410 core
in vec2 fragTexCoord;
in vec3 Normal;
in vec3 FragPos;

uniform sampler2D baseColorTexture;
uniform bool hasBaseColorTexture;
uniform vec4 baseColor;
uniform vec3 emissive;
uniform float metallic;
uniform float roughness;
uniform bool unlit;

uniform struct Light {
    vec3 direction; // direction the light travels
    vec3 color;
    float intensity;
} light;
uniform vec3 ambientColor;
uniform float ambientBrightness;
uniform vec3 viewPos;

out vec4 FragColor;

void main() {
    vec4 albedo = baseColor;
    if (hasBaseColorTexture) {
        albedo *= texture(baseColorTexture, fragTexCoord);
    }
    if (unlit) {
        FragColor = albedo;
        return;
    }

    vec3 norm = normalize(Normal);
    vec3 lightDir = normalize(-light.direction);
    float diff = max(dot(norm, lightDir), 0.0);

    vec3 viewDir = normalize(viewPos - FragPos);
    vec3 halfway = normalize(lightDir + viewDir);
    float shininess = mix(256.0, 4.0, clamp(roughness, 0.0, 1.0));
    float spec = pow(max(dot(norm, halfway), 0.0), shininess);
    vec3 specColor = mix(vec3(0.04), albedo.rgb, metallic);

    vec3 ambient = ambientColor * ambientBrightness * albedo.rgb;
    vec3 diffuse = diff * (1.0 - metallic) * albedo.rgb;
    vec3 specular = spec * specColor;
    vec3 lit = ambient + (diffuse + specular) * light.color * light.intensity + emissive;
    FragColor = vec4(lit, albedo.a);
}
` + "\x00"

// The cube is drawn around the camera; the fragment direction is the object-space position.
var cubemapVertexShaderSource = `#version 410 core

layout(location = 0) in vec3 inPosition;

uniform mat4 model;
uniform mat4 viewProjection;

out vec3 fragDirection;

void main() {
    fragDirection = inPosition;
    gl_Position = viewProjection * model * vec4(inPosition, 1.0);
}
` + "\x00"

var cubemapFragmentShaderSource = `#version 410 core
in vec3 fragDirection;

uniform samplerCube baseColorTexture;

out vec4 FragColor;

void main() {
    FragColor = texture(baseColorTexture, normalize(fragDirection));
}
` + "\x00"

func InitShader(kind ShaderKind) Shader {
	switch kind {
	case ShaderCubemap:
		return Shader{
			Name:           kind.String(),
			vertexSource:   cubemapVertexShaderSource,
			fragmentSource: cubemapFragmentShaderSource,
		}
	default:
		return Shader{
			Name:           ShaderStandard.String(),
			vertexSource:   standardVertexShaderSource,
			fragmentSource: standardFragmentShaderSource,
		}
	}
}
